package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Analytics AnalyticsConfig `json:"analytics"`
	Logger    LoggerConfig    `json:"logger"`
}

// AnalyticsConfig represents the tunables of the analytics engine
type AnalyticsConfig struct {
	// Annual risk-free rate used for excess-return statistics
	RiskFreeRate float64 `json:"risk_free_rate"`

	// Allocation drift tolerance, in percentage points
	DriftTolerance float64 `json:"drift_tolerance"`

	// Minimum aligned observations for a basic benchmark comparison
	MinObservations int `json:"min_observations"`

	// Minimum aligned observations for advanced comparison metrics
	AdvancedMinObservations int `json:"advanced_min_observations"`

	// Rolling window length for correlation/beta stability series
	RollingWindow int `json:"rolling_window"`

	// Number of ranked holdings reported in concentration analysis
	TopHoldings int `json:"top_holdings"`

	// Worker cap for per-entity fan-out computations
	ComparisonWorkers int `json:"comparison_workers"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	return &Config{
		Analytics: AnalyticsConfig{
			RiskFreeRate:            getEnvFloat("ANALYTICS_RISK_FREE_RATE", 0.02),
			DriftTolerance:          getEnvFloat("ANALYTICS_DRIFT_TOLERANCE", 5.0),
			MinObservations:         getEnvInt("ANALYTICS_MIN_OBSERVATIONS", 10),
			AdvancedMinObservations: getEnvInt("ANALYTICS_ADVANCED_MIN_OBSERVATIONS", 30),
			RollingWindow:           getEnvInt("ANALYTICS_ROLLING_WINDOW", 30),
			TopHoldings:             getEnvInt("ANALYTICS_TOP_HOLDINGS", 10),
			ComparisonWorkers:       getEnvInt("ANALYTICS_COMPARISON_WORKERS", 5),
		},

		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
