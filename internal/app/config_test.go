package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, body string, keys ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_STORE", "memory")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, int32(10), cfg.PGMaxConns)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "*/10 * * * *", cfg.StatsWarmupCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigEnvFile(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("APP_ADDR", ":9000")
	path := writeEnvFile(t, "APP_ADDR=:7000\nPUBLIC_BASE_URL=https://kedai.test\nUPLOAD_MAX_BYTES=1024\n",
		"PUBLIC_BASE_URL", "UPLOAD_MAX_BYTES")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.AppAddr, "environment wins over .env")
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, "https://kedai.test/uploads", cfg.ImageBaseURL())
}

func TestLoadConfigRejectsUnknownSessionStore(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_STORE", "cookie")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE")
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_STORE", "memory")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestNilConfigHelpers(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "/uploads", cfg.ImageBaseURL())
}
