package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "MAX_FILE_SIZE", "TEMP_DIR", "VALIDATION_DELAY", "DOWNLOAD_TTL", "THUMBNAIL_DPI", "STATIC_DIR", "ALLOWED_ORIGIN", "LOG_LEVEL", "LOG_FORMAT", "OPERATION_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.ValidationDelay)
	assert.Equal(t, 60*time.Second, cfg.DownloadTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_FILE_SIZE", "1024")
	t.Setenv("VALIDATION_DELAY", "250")
	t.Setenv("DOWNLOAD_TTL", "2m")
	t.Setenv("ALLOWED_ORIGIN", "http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
	assert.Equal(t, 250*time.Millisecond, cfg.ValidationDelay)
	assert.Equal(t, 2*time.Minute, cfg.DownloadTTL)
	assert.Equal(t, "http://localhost:5173", cfg.AllowedOrigin)
}

func TestLoadIgnoresUnparseableNumbers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_FILE_SIZE", "lots")
	t.Setenv("VALIDATION_DELAY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, DefaultValidationDelay, cfg.ValidationDelay)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MaxFileSize = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ThumbnailDPI = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
