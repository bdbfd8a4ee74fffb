package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing key used when JWT_SECRET is unset. It is
// refused in production.
const DevJWTSecret = "fallback-secret-key-for-dev-only"

// Visibility rules for non-admin ledger access.
const (
	VisibilityPaidBy          = "paid_by"
	VisibilityPaidByOrCreated = "paid_by_or_created_by"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Ledger
	VisibilityRule string
	ReportTimezone string

	// Login throttling
	LoginRatePerMinute int
	LoginBurst         int

	// Logo storage
	S3 S3Config
}

// S3Config holds object storage settings for the company logo.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // empty = AWS, set for MinIO/LocalStack
	URLExpiry       time.Duration
}

// Enabled reports whether a bucket has been configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "framex"),
		DBPassword: getEnv("DB_PASSWORD", "framex"),
		DBName:     getEnv("DB_NAME", "framex"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "framex.db"),

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),

		VisibilityRule: getEnv("VISIBILITY_RULE", VisibilityPaidBy),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "UTC"),

		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         getEnvInt("LOGIN_BURST", 5),

		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
		},
	}

	config.JWTExpirationDur = getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.S3.URLExpiry = getEnvDuration("LOGO_URL_EXPIRY", time.Hour)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to avoid
// reading the environment.
func Set(cfg *Config) {
	appConfig = cfg
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	if c.Env == "production" && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER '%s': must be postgres or sqlite", c.DBDriver)
	}

	switch c.VisibilityRule {
	case VisibilityPaidBy, VisibilityPaidByOrCreated:
	default:
		return fmt.Errorf("invalid VISIBILITY_RULE '%s': must be %s or %s",
			c.VisibilityRule, VisibilityPaidBy, VisibilityPaidByOrCreated)
	}

	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE '%s': %w", c.ReportTimezone, err)
	}

	if c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("login rate limit and burst must be positive")
	}

	return nil
}

// ReportLocation returns the time zone used for month grouping and export dates.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
