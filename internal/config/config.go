package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Stage identifies the deployment environment. Stages compose with the
// school identifier to form environment-scoped resource names.
type Stage string

const (
	StageProd Stage = "PROD"
	StageBeta Stage = "BETA"
	StageDev  Stage = "DEV"
)

// ParseStage normalizes a stage string, defaulting to DEV on unknown input.
func ParseStage(raw string) Stage {
	switch Stage(strings.ToUpper(strings.TrimSpace(raw))) {
	case StageProd:
		return StageProd
	case StageBeta:
		return StageBeta
	default:
		return StageDev
	}
}

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Device   DeviceConfig
	Notify   NotifyConfig
}

// AppConfig controls server level behavior and deployment scoping.
type AppConfig struct {
	Name                  string
	Stage                 Stage
	SchoolID              string
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

// AuthConfig defines authentication parameters for both credential pools.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	MinPasswordLength       int
}

// SessionConfig tunes the kiosk session protocol.
type SessionConfig struct {
	// AutoProvision accepts sign-ins from unregistered hardware ids by
	// creating the visitor record inline. Deployment-time policy.
	AutoProvision  bool
	LockTTLSeconds int
}

// DeviceConfig parameterizes kiosk enrollment.
type DeviceConfig struct {
	Endpoint     string
	CertTTLYears int
}

// NotifyConfig holds notification endpoints for out-of-band delivery.
type NotifyConfig struct {
	EmailFrom  string
	PortalURL  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "makerspace-admin"),
			Stage:                 ParseStage(getEnv("STAGE", "DEV")),
			SchoolID:              getEnv("SCHOOL_ID", "default"),
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:       getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		},
		Session: SessionConfig{
			AutoProvision:  getEnvAsBool("SESSION_AUTO_PROVISION", false),
			LockTTLSeconds: getEnvAsInt("SESSION_LOCK_TTL_SECONDS", 10),
		},
		Device: DeviceConfig{
			Endpoint:     getEnv("DEVICE_ENDPOINT", "mqtts://localhost:8883"),
			CertTTLYears: getEnvAsInt("DEVICE_CERT_TTL_YEARS", 5),
		},
		Notify: NotifyConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			PortalURL:  getEnv("NOTIFY_PORTAL_URL", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
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

// ResourcePrefix scopes resource names to the deployment, e.g. "beta-clemson".
func (a AppConfig) ResourcePrefix() string {
	return strings.ToLower(string(a.Stage)) + "-" + strings.ToLower(a.SchoolID)
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
