package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-pos-console/internal/pkg/logger"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(logger.Discard(), WithEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POS_API_BASE_URL", "https://pos.example.com/api")
	t.Setenv("POS_API_TIMEOUT", "5s")
	t.Setenv("POS_CACHE_TTL", "2m")
	t.Setenv("POS_ORDER_CLEAR_POLICY", "ON_SUCCESS")
	t.Setenv("POS_MUTATION_KEEP_OPEN_ON_FAILURE", "true")

	cfg, err := Load(logger.Discard(), WithEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, "https://pos.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, ClearOnSuccess, cfg.Order.ClearPolicy)
	assert.True(t, cfg.Mutation.KeepOpenOnFailure)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("POS_LOG_LEVEL=debug\nPOS_ORDER_TABLE_PAGE_SIZE=20\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("POS_LOG_LEVEL")
		os.Unsetenv("POS_ORDER_TABLE_PAGE_SIZE")
	})

	cfg, err := Load(logger.Discard(), WithEnvFiles(path))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 20, cfg.Order.TablePageSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }},
		{"cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"clear policy", func(c *Config) { c.Order.ClearPolicy = "sometimes" }},
		{"table page size", func(c *Config) { c.Order.TablePageSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("POS_ORDER_CLEAR_POLICY", "never")
	_, err := Load(logger.Discard(), WithEnvFiles())
	assert.ErrorIs(t, err, ErrInvalid)
}
