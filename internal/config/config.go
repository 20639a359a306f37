package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogLevel    string

	// Redis is optional; when empty the change feed stays in-process only.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SMTP settings for invoice reminders.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// ReminderLeadDays: the daily sweep picks invoices due exactly this many days from now.
	ReminderLeadDays int

	// StrictNumbering: document numbers come from an atomic sequence row instead of
	// the legacy count+1 scheme (which can hand out duplicates under concurrency).
	StrictNumbering bool

	// EnforceStockAvailability: reject invoice lines that would push closing stock
	// below zero. Off by default; negative closing stock is representable.
	EnforceStockAvailability bool
}

func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=billmate port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		ReminderLeadDays: getEnvInt("REMINDER_LEAD_DAYS", 3),

		StrictNumbering:          getEnvBool("STRICT_NUMBERING", true),
		EnforceStockAvailability: getEnvBool("ENFORCE_STOCK_AVAILABILITY", false),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment variable is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.RedisAddr == "" {
		log.Println("[WARN] REDIS_ADDR not set, change feed will not propagate across instances")
	}
	if cfg.SMTPHost == "" {
		log.Println("[WARN] SMTP_HOST not set, invoice reminders will be disabled")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s is not a number, using default %d", key, def)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[WARN] %s is not a boolean, using default %t", key, def)
	}
	return def
}
