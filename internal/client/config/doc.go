// Package config loads runtime configuration for the tipsync client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or -config.
//  3. Environment variables with the TIPSYNC_ prefix.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   address:port of the document server, or "memory"
//	-i int      online status check interval (seconds)
//	-s int      auto-sync interval (seconds, 0 disables)
//	-f string   path of the local SQLite database
//	-l string   log file (empty logs to stderr)
//	-v string   log level: debug, info, warn, error
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "database_path": "tipsync.db",
//	  "log_file": "tipsync.log",
//	  "log_level": "info"
//	}
package config
