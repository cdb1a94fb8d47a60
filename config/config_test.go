package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	t.Setenv("FRAMER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	return filepath.Join(t.TempDir(), "config.json")
}

func TestLoadDefaults(t *testing.T) {
	path := isolate(t)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultImageModel, cfg.ImageModel)
	assert.Equal(t, DefaultEditModel, cfg.EditModel)
	assert.Equal(t, 3*time.Second, cfg.LoadingInterval)
	assert.Empty(t, cfg.APIKey)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestLoadLayers(t *testing.T) {
	path := isolate(t)

	fileCfg := Default()
	fileCfg.ListenAddr = "127.0.0.1:9000"
	fileCfg.TextModel = "file-model"
	require.NoError(t, fileCfg.Save(path))

	t.Setenv("FRAMER_TEXT_MODEL", "env-model")
	t.Setenv("FRAMER_GENERATION_TIMEOUT", "45s")
	t.Setenv("GEMINI_API_KEY", "  from-env  ")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr, "file value should survive when env is unset")
	assert.Equal(t, "env-model", cfg.TextModel, "env should override file")
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrefersFramerKey(t *testing.T) {
	path := isolate(t)
	t.Setenv("FRAMER_API_KEY", "framer-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "framer-key", cfg.APIKey)
}

func TestLoadKeyringFallback(t *testing.T) {
	path := isolate(t)
	require.NoError(t, StoreAPIKey("from-keyring"))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", cfg.APIKey)
}

func TestStoreAPIKeyRejectsEmpty(t *testing.T) {
	isolate(t)
	assert.Error(t, StoreAPIKey("   "))
	assert.Empty(t, LoadAPIKey())
}

func TestLoadBadFile(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveOmitsAPIKey(t *testing.T) {
	path := isolate(t)
	cfg := Default()
	cfg.APIKey = "secret"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestLoadDurations(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte(`{
  "generation_timeout": "90s",
  "enhance_timeout": "1m",
  "loading_interval": 2000000000,
  "listen_addr": "127.0.0.1:9001"
}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, time.Minute, cfg.EnhanceTimeout)
	assert.Equal(t, 2*time.Second, cfg.LoadingInterval)
	assert.Equal(t, Default().ResultTTL, cfg.ResultTTL, "unset durations keep their defaults")
	assert.Equal(t, "127.0.0.1:9001", cfg.ListenAddr)

	require.NoError(t, cfg.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"generation_timeout": "1m30s"`)

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.GenerationTimeout, reloaded.GenerationTimeout)
	assert.Equal(t, cfg.LoadingInterval, reloaded.LoadingInterval)
}

func TestLoadBadDuration(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"generation_timeout": "soon"}`), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }, false},
		{"no edit model", func(c *Config) { c.EditModel = "" }, false},
		{"zero timeout", func(c *Config) { c.GenerationTimeout = 0 }, false},
		{"zero upload", func(c *Config) { c.MaxUploadBytes = 0 }, false},
		{"zero rate", func(c *Config) { c.RequestsPerMinute = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = "k"
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
