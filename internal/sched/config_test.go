package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
strategy: tick
event_log: /tmp/events.csv
log_level: debug
log_format: json
report:
  format: json
  gantt: false
  color: false
server:
  addr: 127.0.0.1:9090
  max_ticks: 5000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyTick, cfg.Strategy)
	assert.Equal(t, "/tmp/events.csv", cfg.EventLog)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.False(t, cfg.Report.Gantt)
	assert.False(t, cfg.Report.Color)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, int64(5000), cfg.Server.MaxTicks)
}

func TestLoad_SanityClamps(t *testing.T) {
	path := writeConfig(t, `
strategy: lottery
log_format: xml
report:
  format: pdf
server:
  max_ticks: -1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyEvent, cfg.Strategy)
	assert.Equal(t, "table", cfg.Report.Format)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int64(DefaultMaxTicks), cfg.Server.MaxTicks)
	assert.True(t, cfg.Report.Gantt, "unset keys keep their defaults")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "strategy: [tick\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyEvent, s)

	s, err = ParseStrategy("tick")
	require.NoError(t, err)
	assert.Equal(t, StrategyTick, s)

	_, err = ParseStrategy("fifo")
	assert.Error(t, err)
}

func TestTickClock(t *testing.T) {
	c := NewTickClock()
	require.NoError(t, c.Advance(3))
	require.NoError(t, c.Advance(1))
	assert.Equal(t, int64(4), c.Now())
	assert.Equal(t, int64(2), c.Steps())

	assert.Error(t, c.Advance(0))
	assert.Error(t, c.Advance(-2))
	assert.Equal(t, int64(4), c.Now())
	assert.Equal(t, int64(2), c.Steps(), "failed advances are not counted")
}
