package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every client environment variable, e.g.
// TIPSYNC_SERVER_ADDR.
const EnvPrefix = "TIPSYNC"

// parseEnv overlays cfg with the TIPSYNC_* variables that are set. Unset
// variables leave the field alone.
func parseEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}
