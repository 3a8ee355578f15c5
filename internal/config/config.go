package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=etech port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string `mapstructure:"HTTP_PORT"`
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"` // postgres | sqlite
	DatabaseDSN    string `mapstructure:"DATABASE_DSN"`
	GormLog        string `mapstructure:"GORM_LOG"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTTTLHours    int    `mapstructure:"JWT_TTL_HOURS"`
	CORSOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisPass string `mapstructure:"REDIS_PASS"`

	KafkaBroker string `mapstructure:"KAFKA_BROKER"`
	KafkaTopic  string `mapstructure:"KAFKA_TOPIC"`

	OtelEndpoint   string `mapstructure:"OTEL_ENDPOINT"`
	OtelAuthHeader string `mapstructure:"OTEL_AUTH_HEADER"`

	LowStockThreshold       int    `mapstructure:"LOW_STOCK_THRESHOLD"`
	DefaultUserPassword     string `mapstructure:"DEFAULT_USER_PASSWORD"`
	PasswordResetTTLMinutes int    `mapstructure:"PASSWORD_RESET_TTL_MINUTES"`

	// Printed documents
	CompanyName         string `mapstructure:"COMPANY_NAME"`
	PaymentInstructions string `mapstructure:"PAYMENT_INSTRUCTIONS"`
	CurrencyLabel       string `mapstructure:"CURRENCY_LABEL"`

	CronLowStock     string `mapstructure:"CRON_LOW_STOCK"`
	CronOverdueBills string `mapstructure:"CRON_OVERDUE_BILLS"`
}

func defaults() map[string]string {
	return map[string]string{
		"HTTP_PORT":                  "8080",
		"DATABASE_DRIVER":            "postgres",
		"DATABASE_DSN":               defaultDSN,
		"GORM_LOG":                   "warn",
		"JWT_TTL_HOURS":              "24",
		"CORS_ALLOWED_ORIGINS":       "http://localhost:5173",
		"LOG_LEVEL":                  "info",
		"KAFKA_TOPIC":                "etech.events",
		"LOW_STOCK_THRESHOLD":        "2",
		"DEFAULT_USER_PASSWORD":      "changeme123",
		"PASSWORD_RESET_TTL_MINUTES": "30",
		"COMPANY_NAME":               "Etech Solutions",
		"PAYMENT_INSTRUCTIONS":       "Payment Method: M-Pesa Paybill 123456, Account: Your Name",
		"CURRENCY_LABEL":             "KES",
		"CRON_LOW_STOCK":             "0 8 * * *",
		"CRON_OVERDUE_BILLS":         "0 9 * * *",
	}
}

// LoadEnv reads a .env file if one exists. Missing files are not an error,
// variables may come from the process environment instead.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load builds the configuration from the process environment.
func Load() (*Config, error) {
	return FromMap(environ())
}

// FromMap decodes a flat key/value set on top of the defaults.
func FromMap(values map[string]string) (*Config, error) {
	merged := defaults()
	for k, v := range values {
		if strings.TrimSpace(v) != "" {
			merged[k] = v
		}
	}

	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Warnings lists settings that still carry development defaults.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN uses the default value, set your own Postgres DSN for production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.DefaultUserPassword == "changeme123" {
		out = append(out, "DEFAULT_USER_PASSWORD uses the default value")
	}
	return out
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}
	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	return nil
}

// CORSOriginList returns the comma separated origins trimmed.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}
