package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	MemberAPIURL   string
	DocumentAPIURL string
	ConfigAPIURL   string // empty = use the static env-backed provider

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL  time.Duration
	RedisAddr string // empty = in-memory cache

	// Observability
	OTLPEndpoint string

	// Persistence
	SQLitePath string // empty = in-memory stores

	// Events
	AMQPURL      string // empty = events disabled
	AMQPExchange string

	// Overdue worker
	OverdueCronSpec    string
	OverdueHorizonDays int

	// SMTP (overdue reminders)
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SenderEmail string

	// Static interest configuration (used when CONFIG_API_URL is unset)
	LoanRateDefault  decimal.Decimal
	SavingRate       decimal.Decimal
	PenaltyRate      decimal.Decimal
	PenaltyGraceDays int
	PenaltyMethod    string
	TenorMin         int
	TenorMax         int
	TenorDefault     int
	TenorOptions     []int
	LoanCategories   []string
	SavingCategories []string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MemberAPIURL:   getEnv("MEMBER_API_URL", "http://localhost:8081"),
		DocumentAPIURL: getEnv("DOCUMENT_API_URL", "http://localhost:8082"),
		ConfigAPIURL:   getEnv("CONFIG_API_URL", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SQLitePath: getEnv("SQLITE_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "simpanpinjam.events"),

		OverdueCronSpec:    getEnv("OVERDUE_CRON", "0 7 * * *"),
		OverdueHorizonDays: getEnvInt("OVERDUE_HORIZON_DAYS", 30),

		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		SenderEmail: getEnv("SENDER_EMAIL", "noreply@koperasi.local"),

		LoanRateDefault:  getEnvDecimal("LOAN_RATE_DEFAULT", "1.5"),
		SavingRate:       getEnvDecimal("SAVING_RATE", "0.5"),
		PenaltyRate:      getEnvDecimal("PENALTY_RATE", "0.1"),
		PenaltyGraceDays: getEnvInt("PENALTY_GRACE_DAYS", 3),
		PenaltyMethod:    getEnv("PENALTY_METHOD", "daily"),
		TenorMin:         getEnvInt("TENOR_MIN", 6),
		TenorMax:         getEnvInt("TENOR_MAX", 36),
		TenorDefault:     getEnvInt("TENOR_DEFAULT", 12),
		TenorOptions:     getEnvInts("TENOR_OPTIONS", []int{6, 12, 18, 24, 36}),
		LoanCategories:   getEnvList("LOAN_CATEGORIES", []string{"Reguler", "Sertifikasi"}),
		SavingCategories: getEnvList("SAVING_CATEGORIES", []string{"Pokok", "Wajib", "Sukarela"}),
	}
}

// InterestDefaults builds the static interest configuration snapshot from the
// environment-backed values. Used when no configuration provider URL is set.
func (c *Config) InterestDefaults() domain.InterestConfiguration {
	method := domain.PenaltyDaily
	if strings.EqualFold(c.PenaltyMethod, string(domain.PenaltyMonthly)) {
		method = domain.PenaltyMonthly
	}
	return domain.InterestConfiguration{
		LoanRateDefault:  c.LoanRateDefault,
		SavingRate:       c.SavingRate,
		RateMethod:       domain.RateFlat,
		TenorMin:         c.TenorMin,
		TenorMax:         c.TenorMax,
		TenorDefault:     c.TenorDefault,
		TenorOptions:     c.TenorOptions,
		PenaltyRate:      c.PenaltyRate,
		PenaltyGraceDays: c.PenaltyGraceDays,
		PenaltyMethod:    method,
		LoanCategories:   c.LoanCategories,
		SavingCategories: c.SavingCategories,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}

func getEnvInts(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fallback
		}
		out = append(out, i)
	}
	return out
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
