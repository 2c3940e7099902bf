package config

import (
	"os"
	"time"
)

// MemoryEndpoint selects the in-process document store instead of a server.
const MemoryEndpoint = "memory"

// Config holds runtime settings for the tipsync CLI.
type Config struct {
	ServerEndpointAddr  string        `envconfig:"SERVER_ADDR"`
	OnlineCheckInterval time.Duration `envconfig:"ONLINE_CHECK_INTERVAL"`
	SyncInterval        time.Duration `envconfig:"SYNC_INTERVAL"`
	DatabasePath        string        `envconfig:"DATABASE_PATH"`
	LogFile             string        `envconfig:"LOG_FILE"`
	LogLevel            string        `envconfig:"LOG_LEVEL"`
	PullLimit           int           `envconfig:"PULL_LIMIT"`
	QuoteURL            string        `envconfig:"QUOTE_URL"`
	QuoteAPIKey         string        `envconfig:"QUOTE_API_KEY"`
	QuoteRetention      time.Duration `envconfig:"QUOTE_RETENTION"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
	c.DatabasePath = "tipsync.db"
	c.LogFile = "tipsync.log"
	c.LogLevel = "info"
	c.PullLimit = 1000
	c.QuoteURL = "https://api.api-ninjas.com/v2/randomquotes?categories=success"
	c.QuoteRetention = 7 * 24 * time.Hour
}

// Load builds a Config from defaults, the JSON file, the environment and
// args, in that order.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on a bad config source.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
