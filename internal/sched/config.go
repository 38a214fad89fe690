package sched

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Strategy selects how the dispatcher advances virtual time.
type Strategy string

const (
	StrategyEvent Strategy = "event" // jump straight to the next event
	StrategyTick  Strategy = "tick"  // one unit per iteration, reference implementation
)

// ParseStrategy accepts "event" or "tick"; empty means event.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyEvent:
		return StrategyEvent, nil
	case StrategyTick:
		return StrategyTick, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyEvent, StrategyTick)
	}
}

// Config mirrors config.yml
type Config struct {
	Strategy  Strategy     `yaml:"strategy"`   // event (by default)
	EventLog  string       `yaml:"event_log"`  // CSV path for status events, empty = off
	LogLevel  string       `yaml:"log_level"`  // info (by default)
	LogFormat string       `yaml:"log_format"` // text | json
	Report    ReportConfig `yaml:"report"`
	Server    ServerConfig `yaml:"server"`
}

type ReportConfig struct {
	Format string `yaml:"format"` // table | json | csv
	Gantt  bool   `yaml:"gantt"`
	Color  bool   `yaml:"color"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	MaxTicks int64  `yaml:"max_ticks"` // horizon cap for requests that run the tick strategy
}

// DefaultMaxTicks is the default per-request tick horizon.
const DefaultMaxTicks = 1_000_000

// If the config file is not found, we use default values
func DefaultConfig() Config {
	return Config{
		Strategy:  StrategyEvent,
		LogLevel:  "info",
		LogFormat: "text",
		Report: ReportConfig{
			Format: "table",
			Gantt:  true,
			Color:  true,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			MaxTicks: DefaultMaxTicks,
		},
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file means
// defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %q: %w", path, err)
	}

	// sanity clamps
	if s, err := ParseStrategy(string(cfg.Strategy)); err != nil {
		cfg.Strategy = StrategyEvent
	} else {
		cfg.Strategy = s
	}
	switch cfg.Report.Format {
	case "table", "json", "csv":
	default:
		cfg.Report.Format = "table"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		cfg.LogFormat = "text"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxTicks <= 0 {
		cfg.Server.MaxTicks = DefaultMaxTicks
	}

	return cfg, nil
}
