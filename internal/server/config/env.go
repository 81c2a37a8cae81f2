package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// parseEnv overlays values taken from the process environment. Keys missing
// from the environment are looked up in the optional .env file; real
// environment variables always win over the file.
//
// Recognised keys:
//
//	PORT                            HTTP port (":" is prepended)
//	GRPC_ADDR                       gRPC bind address
//	DATABASE_DSN                    PostgreSQL DSN
//	JWT_SECRET                      signing secret
//	JWT_ACCESS_EXPIRATION_MINUTES   access token lifetime, minutes
//	JWT_REFRESH_EXPIRATION_DAYS     refresh token lifetime, days
//	APP_ENV / NODE_ENV              environment name
//	LOG_LEVEL                       log level
func parseEnv(cfg *Config, dotEnvPath string, lookup lookupFunc) error {
	file := map[string]string{}
	if dotEnvPath != "" {
		m, err := godotenv.Read(dotEnvPath)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		cfg.EndpointAddrHTTP = ":" + v
	}
	if v, ok := get("GRPC_ADDR"); ok {
		cfg.EndpointAddrGRPC = v
	}
	if v, ok := get("DATABASE_DSN"); ok {
		cfg.DatabaseDSN = v
	}
	if v, ok := get("JWT_SECRET"); ok {
		cfg.SecretKey = v
	}
	if v, ok := get("JWT_ACCESS_EXPIRATION_MINUTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("JWT_ACCESS_EXPIRATION_MINUTES must be an integer")
		}
		cfg.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}
	if v, ok := get("JWT_REFRESH_EXPIRATION_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("JWT_REFRESH_EXPIRATION_DAYS must be an integer")
		}
		cfg.RefreshTokenValidityDuration = time.Duration(n) * 24 * time.Hour
	}
	if v, ok := get("NODE_ENV"); ok {
		cfg.Env = v
	}
	if v, ok := get("APP_ENV"); ok {
		cfg.Env = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return nil
}
