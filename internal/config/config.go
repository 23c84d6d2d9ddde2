package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		// Driver selects the course store backend: "memory" or "postgres".
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Roster struct {
		BaseURL      string `yaml:"base_url" env:"ROSTER_BASE_URL"`
		BrowseURL    string `yaml:"browse_url" env:"ROSTER_BROWSE_URL"`
		UserAgent    string `yaml:"user_agent" env:"ROSTER_USER_AGENT"`
		RateInterval string `yaml:"rate_interval" env:"ROSTER_RATE_INTERVAL"`
		MaxRetries   int    `yaml:"max_retries" env:"ROSTER_MAX_RETRIES"`
		RetryDelay   string `yaml:"retry_delay" env:"ROSTER_RETRY_DELAY"`
		Timeout      string `yaml:"timeout" env:"ROSTER_TIMEOUT"`
	} `yaml:"roster"`

	AI struct {
		APIKey    string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
		Model     string `yaml:"model" env:"AI_MODEL"`
		MaxTokens int    `yaml:"max_tokens" env:"AI_MAX_TOKENS"`
	} `yaml:"ai"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	err := loadFromEnv(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Driver = "memory"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "rosterchat"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// Roster API defaults
	config.Roster.BaseURL = "https://classes.cornell.edu/api/2.0"
	config.Roster.BrowseURL = "https://classes.cornell.edu/browse/roster"
	config.Roster.UserAgent = "rosterchat/1.0"
	config.Roster.RateInterval = "1s"
	config.Roster.MaxRetries = 3
	config.Roster.RetryDelay = "2s"
	config.Roster.Timeout = "30s"

	// AI defaults
	config.AI.Model = "claude-sonnet-4-5-20250929"
	config.AI.MaxTokens = 1024

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	// Recursively process the config structure and look for env tags
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q (want memory or postgres)", config.Database.Driver)
	}

	if config.AI.APIKey == "" {
		return fmt.Errorf("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}

	// Validate duration formats up front so ingestion doesn't fail mid-run
	for name, value := range map[string]string{
		"roster rate_interval": config.Roster.RateInterval,
		"roster retry_delay":   config.Roster.RetryDelay,
		"roster timeout":       config.Roster.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// RosterRateInterval returns the parsed fixed interval between roster API calls.
func (c *Config) RosterRateInterval() time.Duration {
	return parseDurationOr(c.Roster.RateInterval, time.Second)
}

// RosterRetryDelay returns the parsed delay before a roster API retry.
func (c *Config) RosterRetryDelay() time.Duration {
	return parseDurationOr(c.Roster.RetryDelay, 2*time.Second)
}

// RosterTimeout returns the parsed per-request roster API timeout.
func (c *Config) RosterTimeout() time.Duration {
	return parseDurationOr(c.Roster.Timeout, 30*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	valueLower := strings.ToLower(valueStr)
	if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
		return true
	}
	if valueLower == "false" || valueLower == "0" || valueLower == "no" {
		return false
	}

	return defaultValue
}

// GetEnvAsDuration gets an environment variable as a duration or returns a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
