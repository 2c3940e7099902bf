package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tipsync/internal/flagx"
	"github.com/dmitrijs2005/tipsync/internal/timex"
)

// JsonConfig is the on-disk form of Config. Intervals are timex.Duration so
// they can be written as "3s".
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	DatabasePath        string         `json:"database_path"`
	LogFile             string         `json:"log_file"`
	LogLevel            string         `json:"log_level"`
	PullLimit           int            `json:"pull_limit"`
	QuoteURL            string         `json:"quote_url"`
	QuoteAPIKey         string         `json:"quote_api_key"`
	QuoteRetention      timex.Duration `json:"quote_retention"`
}

// parseJSON overlays cfg with the non-empty values of the file named by -c
// or -config. Without the flag nothing is loaded.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.QuoteURL, jc.QuoteURL)
	setString(&cfg.QuoteAPIKey, jc.QuoteAPIKey)
	if jc.PullLimit > 0 {
		cfg.PullLimit = jc.PullLimit
	}
	if jc.QuoteRetention.Duration > 0 {
		cfg.QuoteRetention = jc.QuoteRetention.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
