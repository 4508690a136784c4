// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultMaxFileSize is the default maximum upload size (10MB)
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultPort is the default server port
	DefaultPort = "8080"

	// DefaultTempDir is the default directory for uploads and extracted files
	DefaultTempDir = "./temp"

	// DefaultValidationDelay is the quiet period before a typed range is parsed
	DefaultValidationDelay = 1500 * time.Millisecond

	// DefaultDownloadTTL is how long an extracted file stays downloadable
	DefaultDownloadTTL = 60 * time.Second

	// DefaultThumbnailDPI is the render resolution for page previews
	DefaultThumbnailDPI = 72

	// DefaultOperationTimeout bounds a single PDF read, render or extract
	DefaultOperationTimeout = 30 * time.Second
)

// Config holds application configuration
type Config struct {
	Port             string
	MaxFileSize      int64
	TempDir          string
	LogLevel         string
	LogFormat        string
	ValidationDelay  time.Duration
	DownloadTTL      time.Duration
	ThumbnailDPI     int
	OperationTimeout time.Duration
	StaticDir        string
	AllowedOrigin    string
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Port:             DefaultPort,
		MaxFileSize:      DefaultMaxFileSize,
		TempDir:          DefaultTempDir,
		LogLevel:         "info",
		LogFormat:        "console",
		ValidationDelay:  DefaultValidationDelay,
		DownloadTTL:      DefaultDownloadTTL,
		ThumbnailDPI:     DefaultThumbnailDPI,
		OperationTimeout: DefaultOperationTimeout,
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	def := Default()
	cfg := &Config{
		Port:             getEnv("PORT", def.Port),
		MaxFileSize:      getEnvInt64("MAX_FILE_SIZE", def.MaxFileSize),
		TempDir:          getEnv("TEMP_DIR", def.TempDir),
		LogLevel:         getEnv("LOG_LEVEL", def.LogLevel),
		LogFormat:        getEnv("LOG_FORMAT", def.LogFormat),
		ValidationDelay:  getEnvDuration("VALIDATION_DELAY", def.ValidationDelay),
		DownloadTTL:      getEnvDuration("DOWNLOAD_TTL", def.DownloadTTL),
		ThumbnailDPI:     int(getEnvInt64("THUMBNAIL_DPI", int64(def.ThumbnailDPI))),
		OperationTimeout: getEnvDuration("OPERATION_TIMEOUT", def.OperationTimeout),
		StaticDir:        os.Getenv("STATIC_DIR"),
		AllowedOrigin:    os.Getenv("ALLOWED_ORIGIN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.ValidationDelay <= 0 {
		return fmt.Errorf("VALIDATION_DELAY must be positive, got %v", c.ValidationDelay)
	}
	if c.DownloadTTL <= 0 {
		return fmt.Errorf("DOWNLOAD_TTL must be positive, got %v", c.DownloadTTL)
	}
	if c.ThumbnailDPI <= 0 {
		return fmt.Errorf("THUMBNAIL_DPI must be positive, got %d", c.ThumbnailDPI)
	}
	if c.TempDir == "" {
		return fmt.Errorf("TEMP_DIR must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1.5s") or plain milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
