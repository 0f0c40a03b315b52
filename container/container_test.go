package container

import (
	"bytes"
	"encoding/json"
	"testing"

	"appshell/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestGetLogger_NamedAndCached(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := New(testConfig(t, nil), zap.New(core))
	require.NoError(t, err)

	first := c.GetLogger("application")
	assert.Same(t, first, c.GetLogger("application"))
	assert.NotSame(t, first, c.GetLogger("http"))

	first.Debug("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "application", logs.All()[0].LoggerName)
}

func TestGetConfigurationGetter(t *testing.T) {
	c, err := New(testConfig(t, map[string]any{"ALLOWED_HOSTS": []string{"a.test"}}), nil)
	require.NoError(t, err)

	hosts, err := c.GetConfigurationGetter().GetArray(config.KeyAllowedHosts)
	require.NoError(t, err)
	assert.Equal(t, []any{"a.test"}, hosts)
	assert.NotNil(t, c.Config())
	assert.NotNil(t, c.RootLogger())
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, map[string]any{"log.format": "json", "log.level": "debug"})

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Named("application").Debug("ready")
	require.NoError(t, logger.Sync())

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ready", entry["msg"])
	assert.Equal(t, "application", entry["logger"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, map[string]any{"log.level": "warn"})

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
