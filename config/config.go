// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the app runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short names and their long aliases
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("unknown environment: %q", s)
}

// Dataset sources
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// Symptom extractors
const (
	ExtractorLexical = "lexical"
	ExtractorLLM     = "llm"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	RequireProxy      bool  // Reject requests that did not go through a reverse proxy

	DatasetPath     string
	DatasetSource   string // json or sqlite
	DatasetEncoding string // auto, utf-8, latin1, windows-1252
	ReloadInterval  time.Duration

	MatchStrategy  string
	MatchThreshold float64

	SymptomExtractor string

	GeneratorEnabled bool
	GeneratorHost    string
	GeneratorModel   string
	GeneratorToken   string
	GeneratorTimeout time.Duration
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "5001"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               parseEnvOrRaw(getEnvWithDefault("ENV", "dev")),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		RequireProxy:      getBoolEnvWithDefault("REQUIRE_PROXY", false),

		DatasetPath:     getEnvWithDefault("DATASET_PATH", "medicaldata.json"),
		DatasetSource:   strings.ToLower(getEnvWithDefault("DATASET_SOURCE", SourceJSON)),
		DatasetEncoding: strings.ToLower(getEnvWithDefault("DATASET_ENCODING", "auto")),
		ReloadInterval:  getDurationEnvWithDefault("RELOAD_INTERVAL", 12*time.Hour),

		MatchStrategy:  strings.ToLower(getEnvWithDefault("MATCH_STRATEGY", "exact")),
		MatchThreshold: getFloatEnvWithDefault("MATCH_THRESHOLD", 0.5),

		SymptomExtractor: strings.ToLower(getEnvWithDefault("SYMPTOM_EXTRACTOR", ExtractorLexical)),

		GeneratorEnabled: getBoolEnvWithDefault("GENERATOR_ENABLED", false),
		GeneratorHost:    getEnvWithDefault("GENERATOR_HOST", "http://localhost:11434/v1"),
		GeneratorModel:   getEnvWithDefault("GENERATOR_MODEL", "qwen2.5:3b"),
		GeneratorToken:   getEnvWithDefault("GENERATOR_TOKEN", "none"),
		GeneratorTimeout: getDurationEnvWithDefault("GENERATOR_TIMEOUT", 20*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateDataset(cfg); err != nil {
		return err
	}

	if err := validateMatching(cfg); err != nil {
		return err
	}

	if err := validateGenerator(cfg); err != nil {
		return err
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []Environment{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if strings.ToLower(logLevel) == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateDataset validates the DATASET_* and RELOAD_INTERVAL variables
func validateDataset(cfg *Config) error {
	if strings.TrimSpace(cfg.DatasetPath) == "" {
		return fmt.Errorf("invalid DATASET_PATH: cannot be empty")
	}

	if cfg.DatasetSource != SourceJSON && cfg.DatasetSource != SourceSQLite {
		return fmt.Errorf("invalid DATASET_SOURCE: must be one of [%s %s], got: %s", SourceJSON, SourceSQLite, cfg.DatasetSource)
	}

	switch cfg.DatasetEncoding {
	case "auto", "utf-8", "latin1", "windows-1252":
	default:
		return fmt.Errorf("invalid DATASET_ENCODING: must be one of [auto utf-8 latin1 windows-1252], got: %s", cfg.DatasetEncoding)
	}

	if cfg.ReloadInterval < 0 || (cfg.ReloadInterval > 0 && cfg.ReloadInterval < time.Minute) {
		return fmt.Errorf("invalid RELOAD_INTERVAL: must be 0 (disabled) or at least 1m, got: %s", cfg.ReloadInterval)
	}

	return nil
}

// validateMatching validates MATCH_STRATEGY, MATCH_THRESHOLD and SYMPTOM_EXTRACTOR
func validateMatching(cfg *Config) error {
	if cfg.MatchStrategy != "exact" && cfg.MatchStrategy != "overlap" {
		return fmt.Errorf("invalid MATCH_STRATEGY: must be one of [exact overlap], got: %s", cfg.MatchStrategy)
	}

	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold > 1 {
		return fmt.Errorf("invalid MATCH_THRESHOLD: must be in (0, 1], got: %v", cfg.MatchThreshold)
	}

	if cfg.SymptomExtractor != ExtractorLexical && cfg.SymptomExtractor != ExtractorLLM {
		return fmt.Errorf("invalid SYMPTOM_EXTRACTOR: must be one of [%s %s], got: %s", ExtractorLexical, ExtractorLLM, cfg.SymptomExtractor)
	}

	if cfg.SymptomExtractor == ExtractorLLM && !cfg.GeneratorEnabled {
		return fmt.Errorf("invalid SYMPTOM_EXTRACTOR: %s requires GENERATOR_ENABLED=true", ExtractorLLM)
	}

	return nil
}

// validateGenerator validates the GENERATOR_* variables, only when the generator is enabled
func validateGenerator(cfg *Config) error {
	if !cfg.GeneratorEnabled {
		return nil
	}

	parsed, err := url.Parse(cfg.GeneratorHost)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid GENERATOR_HOST: must be an absolute URL, got: %s", cfg.GeneratorHost)
	}

	if strings.TrimSpace(cfg.GeneratorModel) == "" {
		return fmt.Errorf("invalid GENERATOR_MODEL: cannot be empty")
	}

	if cfg.GeneratorTimeout <= 0 {
		return fmt.Errorf("invalid GENERATOR_TIMEOUT: must be positive, got: %s", cfg.GeneratorTimeout)
	}

	return nil
}

// parseEnvOrRaw keeps unknown values so validateEnv can report them
func parseEnvOrRaw(value string) Environment {
	if env, err := ParseEnvironment(value); err == nil {
		return env
	}
	return Environment(strings.ToLower(value))
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnvWithDefault gets an environment variable as bool with a default value
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as time.Duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"REQUIRE_PROXY",
		"DATASET_PATH",
		"DATASET_SOURCE",
		"DATASET_ENCODING",
		"RELOAD_INTERVAL",
		"MATCH_STRATEGY",
		"MATCH_THRESHOLD",
		"SYMPTOM_EXTRACTOR",
		"GENERATOR_ENABLED",
		"GENERATOR_HOST",
		"GENERATOR_MODEL",
		"GENERATOR_TOKEN",
		"GENERATOR_TIMEOUT",
	}
}
