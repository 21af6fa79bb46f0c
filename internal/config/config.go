// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/ironsheep/ocr-enhance/internal/logger"
)

// Environment variable names.
const (
	EnvLogLevel  = "OCR_ENHANCE_LOG_LEVEL"
	EnvLogFormat = "OCR_ENHANCE_LOG_FORMAT"
	EnvWorkers   = "OCR_ENHANCE_WORKERS"
	EnvSuffix    = "OCR_ENHANCE_SUFFIX"
	EnvLanguage  = "OCR_ENHANCE_LANG"
)

const (
	DefaultSuffix   = "_enhanced"
	DefaultLanguage = "eng"
)

type Config struct {
	LogLevel  string
	LogFormat string
	Workers   int
	Suffix    string
	Language  string
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   runtime.NumCPU(),
		Suffix:    DefaultSuffix,
		Language:  DefaultLanguage,
	}
}

// LoadFromEnv overlays the environment on Default. Set but invalid values
// are errors rather than silently ignored.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:  strings.ToLower(getEnvOrDefault(EnvLogLevel, "info")),
		LogFormat: strings.ToLower(getEnvOrDefault(EnvLogFormat, "text")),
		Suffix:    getEnvOrDefault(EnvSuffix, DefaultSuffix),
		Language:  getEnvOrDefault(EnvLanguage, DefaultLanguage),
	}

	workers, err := parseIntOrDefault(EnvWorkers, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	cfg.Workers = workers

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid %s: %q (want text or json)", EnvLogFormat, c.LogFormat)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%s must be > 0 (got %d)", EnvWorkers, c.Workers)
	}
	if strings.ContainsAny(c.Suffix, `/\`) {
		return fmt.Errorf("invalid %s: %q must not contain path separators", EnvSuffix, c.Suffix)
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("%s must not be empty", EnvLanguage)
	}
	return nil
}

// ApplyLogging configures the shared logger from c. Log output goes to w,
// or stays where it is when w is nil.
func (c *Config) ApplyLogging(w io.Writer) error {
	return logger.Configure(c.LogLevel, c.LogFormat, w)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
	}
	return n, nil
}
