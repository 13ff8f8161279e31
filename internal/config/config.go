// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port      string
	APIPrefix string
	PublicURL string // Optional: Override auto-detected URL for reverse proxy setups

	// MaxUploadSize is the pre-create rejection ceiling in bytes.
	MaxUploadSize int64

	// Object store settings (MinIO or any S3-compatible endpoint)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PathStyle bool
	S3UseSSL    bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		APIPrefix:     getEnv("API_PREFIX", "/api/v1"),
		PublicURL:     getEnv("PUBLIC_URL", ""),
		MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", 1<<30), // 1GiB default
		S3Endpoint:    getEnv("S3_ENDPOINT", "localhost:9000"),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3Bucket:      getEnv("S3_BUCKET", "uploads"),
		S3PathStyle:   getEnvBool("S3_PATH_STYLE", true),
		S3UseSSL:      getEnvBool("S3_SECURE", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate ensures configuration values are sensible
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}

	if c.S3Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT cannot be empty")
	}

	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET cannot be empty")
	}

	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/', got %q", c.APIPrefix)
	}

	c.APIPrefix = strings.TrimSuffix(c.APIPrefix, "/")

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 retrieves an int64 environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
