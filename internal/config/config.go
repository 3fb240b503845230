package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Identity IdentityConfig
	Sync     SyncConfig
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

// IdentityConfig defines parameters for the built-in identity provider.
type IdentityConfig struct {
	JWTSecret                string
	SessionTokenTTLMinutes   int
	PasswordResetTTLMinutes  int
	OTPTTLMinutes            int
	OTPSendsPerMinute        int
	BcryptCost               int
	RequireEmailVerification bool
	OAuthBaseURL             string
	DefaultCountryCode       string
}

// SyncConfig tunes record-store reconciliation.
type SyncConfig struct {
	PollIntervalSeconds int
	CallTimeoutSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "consult-smart-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Identity: IdentityConfig{
			JWTSecret:                getEnv("IDENTITY_JWT_SECRET", "dev-secret"),
			SessionTokenTTLMinutes:   getEnvAsInt("IDENTITY_SESSION_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes:  getEnvAsInt("IDENTITY_PASSWORD_RESET_TTL_MINUTES", 30),
			OTPTTLMinutes:            getEnvAsInt("IDENTITY_OTP_TTL_MINUTES", 5),
			OTPSendsPerMinute:        getEnvAsInt("IDENTITY_OTP_SENDS_PER_MINUTE", 3),
			BcryptCost:               getEnvAsInt("IDENTITY_BCRYPT_COST", 12),
			RequireEmailVerification: getEnvAsBool("IDENTITY_REQUIRE_EMAIL_VERIFICATION", false),
			OAuthBaseURL:             getEnv("IDENTITY_OAUTH_BASE_URL", ""),
			DefaultCountryCode:       getEnv("IDENTITY_DEFAULT_COUNTRY_CODE", "1"),
		},
		Sync: SyncConfig{
			PollIntervalSeconds: getEnvAsInt("SYNC_POLL_INTERVAL_SECONDS", 5),
			CallTimeoutSeconds:  getEnvAsInt("SYNC_CALL_TIMEOUT_SECONDS", 15),
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

// PollInterval returns the reconciliation interval for poll-based feeds.
func (s SyncConfig) PollInterval() time.Duration {
	if s.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// CallTimeout returns the per-call deadline for backend operations.
func (s SyncConfig) CallTimeout() time.Duration {
	if s.CallTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.CallTimeoutSeconds) * time.Second
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
