// Package config loads runtime settings for the snip binaries from the
// environment. A .env file in the working directory is honoured when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
)

// Config represents the complete runtime configuration.
type Config struct {
	LogLevel logging.Level
	OCR      OCRConfig
	Workbook WorkbookConfig
	Table    tables.Config
}

// OCRConfig holds OCR collaborator settings.
type OCRConfig struct {
	Language string
	Timeout  time.Duration
}

// WorkbookConfig holds spreadsheet settings.
type WorkbookConfig struct {
	// Path is opened at startup when set.
	Path          string
	Sheet         string
	EmbedFormulas bool
}

// Load reads .env (if any) and the SNIP_MCP_* environment variables, then
// validates the result.
func Load() (*Config, error) {
	// Missing .env is normal.
	_ = godotenv.Load()
	return FromEnv()
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		LogLevel: logging.LevelInfo,
		OCR: OCRConfig{
			Language: "eng",
			Timeout:  30 * time.Second,
		},
		Workbook: WorkbookConfig{Sheet: "Sheet1"},
		Table:    tables.DefaultConfig(),
	}
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	def := Default()
	table := def.Table

	minQuality, err := getEnvFloatOrDefault("SNIP_MCP_TABLE_MIN_QUALITY", table.MinQualityScore)
	if err != nil {
		return nil, err
	}
	table.MinQualityScore = minQuality

	multiplier, err := getEnvFloatOrDefault("SNIP_MCP_HEADER_MULTIPLIER", table.HeaderScoreMultiplier)
	if err != nil {
		return nil, err
	}
	table.HeaderScoreMultiplier = multiplier

	parallel, err := getEnvBoolOrDefault("SNIP_MCP_PARALLEL_STRATEGIES", table.Parallel)
	if err != nil {
		return nil, err
	}
	table.Parallel = parallel

	timeout, err := getEnvDurationOrDefault("SNIP_MCP_OCR_TIMEOUT", def.OCR.Timeout)
	if err != nil {
		return nil, err
	}

	embed, err := getEnvBoolOrDefault("SNIP_MCP_EMBED_FORMULAS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel: logging.ParseLevel(getEnvOrDefault("SNIP_MCP_LOG_LEVEL", "info")),
		OCR: OCRConfig{
			Language: getEnvOrDefault("SNIP_MCP_OCR_LANGUAGE", def.OCR.Language),
			Timeout:  timeout,
		},
		Workbook: WorkbookConfig{
			Path:          getEnvOrDefault("SNIP_MCP_WORKBOOK", ""),
			Sheet:         getEnvOrDefault("SNIP_MCP_SHEET", def.Workbook.Sheet),
			EmbedFormulas: embed,
		},
		Table: table,
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperr.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.OCR.Timeout <= 0 {
		return apperr.ConfigInvalid("SNIP_MCP_OCR_TIMEOUT must be positive")
	}
	if c.OCR.Language == "" {
		return apperr.ConfigInvalid("SNIP_MCP_OCR_LANGUAGE must not be empty")
	}
	if c.Workbook.Sheet == "" {
		return apperr.ConfigInvalid("SNIP_MCP_SHEET must not be empty")
	}
	if c.Table.MinQualityScore < 0 {
		return apperr.ConfigInvalid("SNIP_MCP_TABLE_MIN_QUALITY must not be negative")
	}
	if c.Table.HeaderScoreMultiplier <= 0 {
		return apperr.ConfigInvalid("SNIP_MCP_HEADER_MULTIPLIER must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperr.ConfigInvalid(key + " must be a number")
	}
	return f, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, apperr.ConfigInvalid(key + " must be a boolean")
	}
	return b, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	// Plain integers are seconds.
	secs, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperr.ConfigInvalid(key + " must be a duration")
	}
	return time.Duration(secs) * time.Second, nil
}
