package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 3, cfg.MaxConcurrentSweeps)
	assert.Equal(t, 300*time.Millisecond, cfg.InterAssetPause)
	assert.Equal(t, 2*time.Hour, cfg.ResultTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_SWEEPS", "5")
	t.Setenv("SWEEP_INTER_ASSET_PAUSE_MS", "100")
	t.Setenv("RESULT_TTL_S", "3600")
	t.Setenv("FMP_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxConcurrentSweeps)
	assert.Equal(t, 100*time.Millisecond, cfg.InterAssetPause)
	assert.Equal(t, time.Hour, cfg.ResultTTL)
	assert.Equal(t, "test-key", cfg.FMPKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{RedisURL: "redis://localhost:6379", MaxConcurrentSweeps: 0, ResultTTL: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg = &Config{RedisURL: "", MaxConcurrentSweeps: 3, ResultTTL: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg = &Config{RedisURL: "redis://localhost:6379", MaxConcurrentSweeps: 3, ResultTTL: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{RedisURL: "redis://localhost:6379", MaxConcurrentSweeps: 3, ResultTTL: time.Hour}
	assert.NoError(t, cfg.Validate())
}
