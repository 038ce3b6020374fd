package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds the application configuration
type Config struct {
	AppPort           string        // Application port
	IsProd            bool          // Is production environment
	LogLevel          string        // Logrus level name
	DBDriver          string        // postgres or mysql
	DBUser            string        // Database user
	DBPassword        string        // Database password
	DBHost            string        // Database host
	DBPort            string        // Database port
	DBName            string        // Database name
	DBSSLMode         string        // Postgres sslmode
	DBMaxOpenConns    int           // Pool size
	DBMaxIdleConns    int           // Idle connections kept in the pool
	DBConnMaxLifetime time.Duration // Connection recycle interval
	RunMigrations     bool          // Migrate the schema on server start
	RedisAddr         string        // Redis server address, empty disables caching
	RedisPass         string        // Redis password
	RedisDB           int           // Redis database number
	CacheTTL          time.Duration // TTL of cached operation history pages
	IdempotencyTTL    time.Duration // How long replayable responses are kept
	CORSAllowOrigins  []string      // Allowed CORS origins
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	isProd := getEnv("IS_PROD", "") == "true" || getEnv("APP_ENV", "dev") == "prod"
	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		IsProd:            isProd,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", defaultPort(getEnv("DB_DRIVER", DriverPostgres))),
		DBName:            getEnv("DB_NAME", "wallets"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		RunMigrations:     getEnv("RUN_MIGRATIONS", "true") == "true",
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPass:         os.Getenv("REDIS_PASS"),
		RedisDB:           getIntEnv("REDIS_DB", 0),
		CacheTTL:          getDurationEnv("CACHE_TTL", 60*time.Second),
		IdempotencyTTL:    getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		CORSAllowOrigins:  splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() (string, error) {
	switch c.DBDriver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode), nil
	case DriverMySQL:
		// clientFoundRows makes a no-op balance update still count as a matched row
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
			"?parseTime=true&clientFoundRows=true", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// getIntEnv returns an int environment variable or a default value
func getIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getDurationEnv parses values like "30s" or "1h"
func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func defaultPort(driver string) string {
	if strings.ToLower(driver) == DriverMySQL {
		return "3306"
	}
	return "5432"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
