package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
	Calendar     CalendarConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines reporting API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// SchedulerConfig controls the escalation check loop.
type SchedulerConfig struct {
	Enabled                  bool
	CronExpression           string
	TickTimeoutSeconds       int
	ApproachingWindowMinutes int
	WarningPercent           float64
	LockTTLSeconds           int
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	WebhookURL  string
	EmailFrom   string
	FrontendURL string
}

// CalendarConfig lists holiday dates excluded from business-hours clocks.
type CalendarConfig struct {
	Holidays []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	warningPercent, err := strconv.ParseFloat(getEnv("SLA_WARNING_PERCENT", "75"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SLA_WARNING_PERCENT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Scheduler: SchedulerConfig{
			Enabled:                  getEnvAsBool("SLA_SCHEDULER_ENABLED", true),
			CronExpression:           getEnv("SLA_CRON_EXPRESSION", "*/5 * * * *"),
			TickTimeoutSeconds:       getEnvAsInt("SLA_TICK_TIMEOUT_SECONDS", 120),
			ApproachingWindowMinutes: getEnvAsInt("SLA_APPROACHING_WINDOW_MINUTES", 30),
			WarningPercent:           warningPercent,
			LockTTLSeconds:           getEnvAsInt("SLA_TICK_LOCK_TTL_SECONDS", 120),
		},
		Notification: NotificationConfig{
			WebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
			EmailFrom:   getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Calendar: CalendarConfig{
			Holidays: splitList(os.Getenv("SLA_HOLIDAYS")),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TickTimeout returns the per-tick deadline for the scheduler.
func (s SchedulerConfig) TickTimeout() time.Duration {
	if s.TickTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.TickTimeoutSeconds) * time.Second
}

// ApproachingWindow returns the pre-deadline alert window.
func (s SchedulerConfig) ApproachingWindow() time.Duration {
	if s.ApproachingWindowMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.ApproachingWindowMinutes) * time.Minute
}

// LockTTL returns the distributed tick lock expiry.
func (s SchedulerConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
