package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-h string   HTTP bind address for metrics and health
//	-d string   PostgreSQL DSN
//	-R string   Redis URL for refresh tokens
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-m int      max documents per query
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Token validity flags only replace the configured value when present.
func parseFlags(config *Config, args []string) error {
	var (
		access, refresh int
		parsed          *flag.FlagSet
	)
	allowed := []string{"-a", "-h", "-d", "-R", "-s", "-t", "-r", "-m", "-u", "-p", "-b", "-g", "-e"}
	err := flagx.ParseSubset("server", args, allowed, func(fs *flag.FlagSet) {
		parsed = fs
		fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
		fs.StringVar(&config.HTTPAddr, "h", config.HTTPAddr, "address and port for metrics and health")
		fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
		fs.StringVar(&config.RedisURL, "R", config.RedisURL, "redis URL for refresh tokens")
		fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
		fs.IntVar(&access, "t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
		fs.IntVar(&refresh, "r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
		fs.IntVar(&config.MaxQueryResults, "m", config.MaxQueryResults, "max documents per query")
		fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
		fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
		fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
		fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
		fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	})
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	parsed.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(refresh) * time.Minute
		}
	})
	return nil
}
