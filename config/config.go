package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Dataset API
	Dataset DatasetConfig

	// Output files
	Output OutputConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string
}

// DatasetConfig holds settings for the public dataset API.
type DatasetConfig struct {
	// URL is the full endpoint returning the JSON record array
	URL string

	// Request behavior
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Fields maps the logical record fields onto the JSON field names the
	// API actually uses. The names are configuration, not contract.
	Fields FieldNames
}

// FieldNames holds the JSON field names of the four required record fields.
type FieldNames struct {
	SchoolID string
	Year     string
	Enrolled string
	Retained string
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	// Dir is the directory both output files are written into
	Dir string

	// BaseName is the file name without extension; the writer appends
	// .csv and .parquet
	BaseName string

	// Verify re-reads the parquet file after writing and compares it to
	// the in-memory dataset
	Verify bool
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel string // debug, info, warn, error
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Dataset:       loadDatasetConfig(),
		Output:        loadOutputConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))

	return AppConfig{
		Name:        getEnv("APP_NAME", "retention-pipeline"),
		Environment: env,
		Debug:       env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:     getEnv("APP_VERSION", "0.1.0"),
	}
}

func loadDatasetConfig() DatasetConfig {
	return DatasetConfig{
		URL:            getEnv("DATASET_API_URL", "https://ws.cso.ie/public/api.restful/PxStat.Data.Cube_API.ReadDataset/EDA14/JSON/1.0/en"),
		RequestTimeout: getEnvDuration("DATASET_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("DATASET_MAX_RETRIES", 3),
		RetryBaseDelay: getEnvDuration("DATASET_RETRY_BASE_DELAY", 500*time.Millisecond),
		Fields: FieldNames{
			SchoolID: getEnv("DATASET_FIELD_SCHOOL_ID", "school_id"),
			Year:     getEnv("DATASET_FIELD_YEAR", "year"),
			Enrolled: getEnv("DATASET_FIELD_ENROLLED", "enrolled"),
			Retained: getEnv("DATASET_FIELD_RETAINED", "retained"),
		},
	}
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:      getEnv("OUTPUT_DIR", "transformed"),
		BaseName: getEnv("OUTPUT_BASE_NAME", "processed_student_data"),
		Verify:   getEnvBool("OUTPUT_VERIFY", true),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Dataset.URL == "" {
		errs = append(errs, "DATASET_API_URL is required")
	} else if u, err := url.Parse(c.Dataset.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "DATASET_API_URL must be an absolute URL")
	}

	if c.Dataset.RequestTimeout <= 0 {
		errs = append(errs, "DATASET_REQUEST_TIMEOUT must be positive")
	}

	if c.Dataset.MaxRetries < 1 {
		errs = append(errs, "DATASET_MAX_RETRIES must be at least 1")
	}

	for key, name := range map[string]string{
		"DATASET_FIELD_SCHOOL_ID": c.Dataset.Fields.SchoolID,
		"DATASET_FIELD_YEAR":      c.Dataset.Fields.Year,
		"DATASET_FIELD_ENROLLED":  c.Dataset.Fields.Enrolled,
		"DATASET_FIELD_RETAINED":  c.Dataset.Fields.Retained,
	} {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, key+" must not be empty")
		}
	}

	if c.Output.Dir == "" {
		errs = append(errs, "OUTPUT_DIR must not be empty")
	}

	if c.Output.BaseName == "" {
		errs = append(errs, "OUTPUT_BASE_NAME must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
