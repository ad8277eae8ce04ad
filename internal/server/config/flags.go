package config

import (
	"flag"

	"github.com/dmitrijs2005/farmkeeper/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags:
//
//	-a string     HTTP bind address
//	-g string     gRPC bind address
//	-d string     PostgreSQL DSN
//	-s string     root secret
//	-w duration   HTTP shutdown grace period, e.g. 10s
//	-l string     log level
//	-dev          allow the built-in development secret
//
// Only these flags are looked at, so -c and flags of other components pass
// through untouched.
func parseFlags(config *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-w", "-l", "-dev"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "root secret key")
	fs.DurationVar(&config.ShutdownTimeout, "w", config.ShutdownTimeout, "HTTP shutdown grace period")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&config.DevMode, "dev", config.DevMode, "allow the built-in development secret")

	return fs.Parse(filtered)
}
