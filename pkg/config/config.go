package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// AuthSecret verifies HS256 bearer tokens issued by the hosting
	// application for visitors and front-desk staff.
	AuthSecret string

	// AllowedOrigins is a comma-separated allowlist of origins for the
	// booking UI and staff console frontends.
	AllowedOrigins []string

	Engine EngineConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// EngineConfig carries the operational parameters of the visit lifecycle:
// how far ahead bookings are accepted, which weekdays the campus is closed,
// when staff may check visitors in, and the daily cutoff that finalizes
// whatever is still open. Historical behavior varied on the first two, so
// they are configuration rather than constants.
type EngineConfig struct {
	BookingWindowDays int
	ClosedWeekdays    []string
	OpenFrom          string
	OpenUntil         string
	DailyCutoff       string
	SweepInterval     time.Duration
	Timezone          string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "campuspass"),
			User:     env("DB_USER", "campuspass"),
			Password: env("DB_PASSWORD", "campuspass"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		AuthSecret:     os.Getenv("AUTH_SECRET"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		Engine: EngineConfig{
			BookingWindowDays: envInt("BOOKING_WINDOW_DAYS", 7),
			ClosedWeekdays:    envList("CLOSED_WEEKDAYS", "Sunday"),
			OpenFrom:          env("OPEN_FROM", "07:30"),
			OpenUntil:         env("OPEN_UNTIL", "21:00"),
			DailyCutoff:       env("DAILY_CUTOFF", "21:00"),
			SweepInterval:     envDuration("SWEEP_INTERVAL", 5*time.Minute),
			Timezone:          env("TIMEZONE", "Asia/Manila"),
		},
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
