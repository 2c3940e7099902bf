package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/flagx"
)

// parseFlags populates Config from the flags it knows about; other
// arguments are ignored.
func parseFlags(cfg *Config, args []string) error {
	var (
		online, sync int
		parsed       *flag.FlagSet
	)
	err := flagx.ParseSubset("client", args, []string{"-a", "-i", "-s", "-f", "-l", "-v"}, func(fs *flag.FlagSet) {
		parsed = fs
		fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server, or \"memory\"")
		fs.IntVar(&online, "i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
		fs.IntVar(&sync, "s", int(cfg.SyncInterval.Seconds()), "auto-sync interval (in seconds, 0 disables)")
		fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
		fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
		fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	})
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// intervals given in seconds only replace values when the flag is present
	parsed.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(online) * time.Second
		case "s":
			cfg.SyncInterval = time.Duration(sync) * time.Second
		}
	})
	return nil
}
