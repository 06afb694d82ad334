package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default locations tried after the configured expense service URL.
const (
	DefaultExpenseInternalURL = "http://expense-service:8000"
	DefaultExpenseLocalURL    = "http://localhost:8000"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string

	// Expense service
	ExpenseServiceURL  string
	ExpenseInternalURL string
	ExpenseLocalURL    string
	ExpenseTimeout     time.Duration

	// Events (optional; publishing is disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
}

// Load loads configuration from environment variables, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Env:  v.GetString("ENV"),
		Port: v.GetString("PORT"),

		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		JWTSecret: v.GetString("JWT_SECRET"),

		ExpenseServiceURL:  strings.TrimSpace(v.GetString("EXPENSE_SERVICE_URL")),
		ExpenseInternalURL: strings.TrimSpace(v.GetString("EXPENSE_INTERNAL_URL")),
		ExpenseLocalURL:    strings.TrimSpace(v.GetString("EXPENSE_LOCAL_URL")),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
	}

	timeout, err := parseTimeout(v.GetString("EXPENSE_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	config.ExpenseTimeout = timeout

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "budgeteer")
	v.SetDefault("DB_PASSWORD", "budgeteer")
	v.SetDefault("DB_NAME", "budgeteer")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "fallback-secret-key-for-dev-only")

	v.SetDefault("EXPENSE_SERVICE_URL", "")
	v.SetDefault("EXPENSE_INTERNAL_URL", DefaultExpenseInternalURL)
	v.SetDefault("EXPENSE_LOCAL_URL", DefaultExpenseLocalURL)
	v.SetDefault("EXPENSE_TIMEOUT", "5s")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "budgeteer.events")
}

// PostgresURL returns the URL form of the database connection used by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid EXPENSE_TIMEOUT %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("EXPENSE_TIMEOUT must be positive, got %v", d)
	}
	return d, nil
}
