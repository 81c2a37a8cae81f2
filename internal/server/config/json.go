package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todoapi/internal/flagx"
	"github.com/dmitrijs2005/todoapi/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Duration
// fields accept either "30m"-style strings or integer nanoseconds.
// Fields left out of the file keep the value from earlier layers.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	Env                          *string         `json:"env"`
	LogLevel                     *string         `json:"log_level"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config in args, if any, and copies
// every field present in it onto cfg.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	setString(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.Env, c.Env)
	setString(&cfg.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
