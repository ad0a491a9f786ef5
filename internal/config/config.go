// Package config loads runtime settings from the environment. The result is
// built once in main and passed down; nothing reads it globally.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"duobudget/internal/database"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	DB database.Config

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MagicLinkTTL    time.Duration

	// HTTP surface
	CORSOrigins   []string
	FrontendURL   string
	ServiceAPIKey string

	// Mail jobs
	AMQPURL       string
	AMQPExchange  string
	AMQPMailQueue string

	// Location is where "the current month" is evaluated.
	Location *time.Location
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DB: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "duobudget"),
			Password: getEnv("DB_PASSWORD", "duobudget"),
			DBName:   getEnv("DB_NAME", "duobudget"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		JWTSecret:       getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AccessTokenTTL:  getDuration("JWT_EXPIRES_IN", 30*time.Minute),
		RefreshTokenTTL: getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		MagicLinkTTL:    getDuration("MAGIC_LINK_EXPIRES_IN", 15*time.Minute),

		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		ServiceAPIKey: getEnv("SERVICE_API_KEY", ""),

		AMQPURL:       getEnv("AMQP_URL", ""),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", "duobudget"),
		AMQPMailQueue: getEnv("AMQP_MAIL_QUEUE", "mail.outbound"),
	}

	tz := getEnv("TIMEZONE", "Europe/Paris")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: unknown TIMEZONE '%s', falling back to UTC\n", tz)
		loc = time.UTC
	}
	cfg.Location = loc

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Now returns the current time in the configured location.
func (c *Config) Now() time.Time { return time.Now().In(c.Location) }

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, fallback)
		return fallback
	}
	return d
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

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
