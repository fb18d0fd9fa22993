package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied after a successful load.
const (
	DefaultPort               = 8080
	DefaultRefreshIntervalS   = 120
	DefaultShortHorizonMin    = 120
	DefaultFullHorizonMin     = 1440
	DefaultMergeToleranceMin  = 10
	DefaultMaxArrivalsPerStop = 10
	DefaultTimeoutMS          = 10000
)

// Load reads and validates the application configuration from path.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	v := validator.New()
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Engine.RefreshIntervalS == 0 {
		cfg.Engine.RefreshIntervalS = DefaultRefreshIntervalS
	}
	if cfg.Engine.ShortHorizonMin == 0 {
		cfg.Engine.ShortHorizonMin = DefaultShortHorizonMin
	}
	if cfg.Engine.FullHorizonMin == 0 {
		cfg.Engine.FullHorizonMin = DefaultFullHorizonMin
	}
	if cfg.Engine.MergeToleranceMin == 0 {
		cfg.Engine.MergeToleranceMin = DefaultMergeToleranceMin
	}
	if cfg.Engine.MaxArrivalsPerStop == 0 {
		cfg.Engine.MaxArrivalsPerStop = DefaultMaxArrivalsPerStop
	}
	for i := range cfg.Feeds {
		if cfg.Feeds[i].GTFSRT.TimeoutMS == 0 {
			cfg.Feeds[i].GTFSRT.TimeoutMS = DefaultTimeoutMS
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// SelectFeed picks a feed by name, falling back to the first configured
// feed when name is empty.
func (cfg *AppConfig) SelectFeed(name string) (Feed, error) {
	if name == "" {
		if len(cfg.Feeds) == 0 {
			return Feed{}, fmt.Errorf("config: no feeds configured")
		}
		return cfg.Feeds[0], nil
	}
	for _, f := range cfg.Feeds {
		if f.Name == name {
			return f, nil
		}
	}
	return Feed{}, fmt.Errorf("config: feed %q not configured", name)
}
