package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/flagx"
)

// parseFlags overlays short command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3000")
//	-g string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, days
//	-e string   environment (production|development|test)
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrHTTP, "a", cfg.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&cfg.EndpointAddrGRPC, "g", cfg.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT secret key")
	fs.StringVar(&cfg.Env, "e", cfg.Env, "environment")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	access := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(cfg.RefreshTokenValidityDuration.Hours()/24), "refresh token validity (days)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			cfg.RefreshTokenValidityDuration = time.Duration(*refresh) * 24 * time.Hour
		}
	})
	return nil
}
