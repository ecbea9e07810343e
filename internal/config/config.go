package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretBytes is the smallest accepted HS256 signing key.
const MinSecretBytes = 32

// EnvDevelopment is the only APP_ENV that may run without AUTH_JWT_SECRET.
const EnvDevelopment = "development"

const developmentJWTSecret = "MyFinanceTrackerSecretKey2025XYZ"

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Cache    CacheConfig
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
	MigrationsDir  string
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	LockoutMaxFailures    int
	LockoutWindowMinutes  int
	LockoutMinutes        int
}

// CacheConfig controls the Redis summary cache.
type CacheConfig struct {
	SummaryTTLSeconds int
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
			Name:                  getEnv("APP_NAME", "Finance Tracker API"),
			Env:                   getEnv("APP_ENV", EnvDevelopment),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "1.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
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
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			LockoutMaxFailures:    getEnvAsInt("AUTH_LOCKOUT_MAX_FAILURES", 5),
			LockoutWindowMinutes:  getEnvAsInt("AUTH_LOCKOUT_WINDOW_MINUTES", 15),
			LockoutMinutes:        getEnvAsInt("AUTH_LOCKOUT_MINUTES", 15),
		},
		Cache: CacheConfig{
			SummaryTTLSeconds: getEnvAsInt("CACHE_SUMMARY_TTL_SECONDS", 600),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Env != EnvDevelopment {
			return nil, fmt.Errorf("AUTH_JWT_SECRET is required when APP_ENV=%s", cfg.App.Env)
		}
		cfg.Auth.JWTSecret = developmentJWTSecret
	}
	if len(cfg.Auth.JWTSecret) < MinSecretBytes {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes, got %d", MinSecretBytes, len(cfg.Auth.JWTSecret))
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

// AccessTokenTTL returns the bearer token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// LockoutWindow is how long failed logins are remembered.
func (a AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(a.LockoutWindowMinutes) * time.Minute
}

// LockoutDuration is how long an email stays locked.
func (a AuthConfig) LockoutDuration() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

// SummaryTTL returns the monthly summary cache lifetime.
func (c CacheConfig) SummaryTTL() time.Duration {
	return time.Duration(c.SummaryTTLSeconds) * time.Second
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
