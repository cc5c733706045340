// Package config loads the engine configuration from a YAML or JSON file
// with optional K_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/propscan/scheduler/core/extsync"
	"github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/core/schedule"
	"github.com/propscan/scheduler/core/territory"
	"github.com/propscan/scheduler/infra/gcal"
	"github.com/propscan/scheduler/infra/notify"
	"github.com/propscan/scheduler/infra/store"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	Store     store.Config     `json:"store"`
	Schedule  schedule.Config  `json:"schedule"`
	Territory territory.Config `json:"territory"`
	Reminder  reminder.Config  `json:"reminder"`
	Sync      extsync.Config   `json:"sync"`
	Notify    notify.Config    `json:"notify"`
	GCal      gcal.Config      `json:"gcal"`
	Metrics   metrics.Config   `json:"metrics"`
	Logging   LoggingConfig    `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Schedule.SetDefaults()
	cfg.Territory.SetDefaults()
	cfg.Reminder.SetDefaults()
	cfg.Sync.SetDefaults()
	cfg.GCal.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Reminder.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sync.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
