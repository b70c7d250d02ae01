package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Fare     FareConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

// StoreConfig selects the ride store backend.
type StoreConfig struct {
	Driver          string // "postgres" or "memory"
	RideLockTimeout time.Duration
	AutoMigrate     bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// FareConfig holds the fare formula constants.
type FareConfig struct {
	BaseFare        float64
	PerKmRate       float64
	SurgeMultiplier float64
	DynamicSurge    bool
}

// DefaultJWTSecret is the development-only signing secret used when JWT_SECRET is unset.
const DefaultJWTSecret = "change-me"

// ErrDefaultJWTSecret is returned by Validate when a persistent store would
// accept tokens signed with DefaultJWTSecret.
var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set when STORE_DRIVER is postgres")

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// UsesDefaultSecret reports whether tokens are verified with DefaultJWTSecret.
func (a AuthConfig) UsesDefaultSecret() bool {
	return a.JWTSecret == DefaultJWTSecret
}

// KafkaConfig holds the ride event publisher configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "ride_hailing"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 50),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "postgres"),
			RideLockTimeout: getDurationEnv("RIDE_LOCK_TIMEOUT", 5*time.Second),
			AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ridehail-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Fare: FareConfig{
			BaseFare:        getFloatEnv("FARE_BASE", 50.00),
			PerKmRate:       getFloatEnv("FARE_PER_KM", 10.00),
			SurgeMultiplier: getFloatEnv("FARE_SURGE", 1.0),
			DynamicSurge:    getBoolEnv("FARE_DYNAMIC_SURGE", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
			JWTIssuer: getEnv("JWT_ISSUER", "ridehail"),
		},
		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "ride-events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations that are unsafe to serve with. The default
// JWT secret is only tolerated with the in-memory store.
func (c *Config) Validate() error {
	if c.Store.Driver != "memory" && c.Auth.UsesDefaultSecret() {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
