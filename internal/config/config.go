package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Config holds process-level settings for the CLI and the analysis service
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Local plan store used by the CLI
	BoltPath string

	LogLevel string
	LogJSON  bool

	// Cron spec for periodic plan analysis, e.g. "@daily"
	AnalysisSchedule string
	MetricsAddr      string

	// Optional YAML file overriding DefaultThresholds
	ThresholdsFile string
	Thresholds     Thresholds
}

// Load reads configuration from environment variables or a .env file
func Load() (*Config, error) {
	env, err := loadEnvFile(".env")
	if err != nil {
		env = make(map[string]string)
	}

	getEnv := func(key, defaultValue string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		if value, ok := env[key]; ok && value != "" {
			return value
		}
		return defaultValue
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "runcoach"),

		BoltPath: getEnv("BOLT_PATH", homeDir+"/.runcoach/plans.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  parseBool(getEnv("LOG_JSON", "false")),

		AnalysisSchedule: getEnv("ANALYSIS_SCHEDULE", "@daily"),
		MetricsAddr:      getEnv("METRICS_ADDR", ":9102"),

		ThresholdsFile: getEnv("THRESHOLDS_FILE", ""),
	}

	cfg.Thresholds = DefaultThresholds()
	if cfg.ThresholdsFile != "" {
		th, err := LoadThresholds(cfg.ThresholdsFile)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = th
	}

	return cfg, nil
}

// DSN returns the Postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// loadEnvFile reads KEY=VALUE lines from a .env file
func loadEnvFile(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		env[key] = value
	}

	return env, scanner.Err()
}
