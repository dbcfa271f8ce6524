// Package config loads gateway settings from the environment, with an optional
// .env file in development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pstrings "aigateway/pkg/platform/strings"
)

const EnvProduction = "production"

// Config is the complete process configuration.
type Config struct {
	Addr            string
	Environment     string
	ShutdownTimeout time.Duration `validate:"min=1s"`
	Log             LogConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Admin           AdminConfig
	Gemini          GeminiConfig
	RateLimit       RateLimitConfig
	Redis           RedisConfig
	Postgres        PostgresConfig
	Audit           AuditConfig
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

type HTTPConfig struct {
	AllowedOrigins []string
	BodyLimitBytes int64 `validate:"min=1024"`
	// TrustProxy honours X-Forwarded-For when resolving client IPs.
	TrustProxy bool
}

type AuthConfig struct {
	// JWTSecret verifies access tokens. Empty is allowed at startup; every
	// protected request then fails with 500 rather than passing through.
	JWTSecret string
}

type AdminConfig struct {
	// Token guards /admin routes; they are not mounted when it is empty.
	Token string
}

type GeminiConfig struct {
	APIKey  string
	Model   string        `validate:"required"`
	Timeout time.Duration `validate:"min=1s"`
}

type RateLimitConfig struct {
	BurstLimit       int           `validate:"min=1"`
	BurstWindow      time.Duration `validate:"min=1s"`
	DailyLimit       int           `validate:"min=1"`
	DailyWindow      time.Duration `validate:"min=1m"`
	QuotaBypass      bool
	FailureThreshold int           `validate:"min=1"`
	SuccessThreshold int           `validate:"min=1"`
	SweepInterval    time.Duration `validate:"min=1s"`
}

type RedisConfig struct {
	URL          string
	PoolSize     int `validate:"min=1"`
	MinIdleConns int `validate:"min=0"`
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	URL           string
	MaxConns      int32         `validate:"min=1"`
	PurgeInterval time.Duration `validate:"min=1m"`
}

type AuditConfig struct {
	KafkaBrokers    []string
	KafkaTopic      string `validate:"required_with=KafkaBrokers"`
	KafkaPartitions int32  `validate:"min=1"`
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RateLimit.QuotaBypass && c.IsProduction() {
		return errors.New("invalid configuration: AI_QUOTA_BYPASS cannot be enabled when APP_ENV=production")
	}
	return nil
}

// FromEnv builds the Config from environment variables so main stays lean.
// Outside production a .env file (ENV_FILE, default ".env") is loaded first;
// variables already set in the environment win.
func FromEnv() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var errs []error
	duration := func(key string) time.Duration {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := Config{
		Addr:            listenAddr(v),
		Environment:     strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT"),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: pstrings.SplitList(v.GetString("ALLOWED_ORIGINS")),
			BodyLimitBytes: v.GetInt64("BODY_LIMIT_BYTES"),
			TrustProxy:     v.GetBool("TRUST_PROXY"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Admin: AdminConfig{
			Token: v.GetString("ADMIN_API_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
			Model:   v.GetString("GEMINI_MODEL"),
			Timeout: duration("GEMINI_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			BurstLimit:       v.GetInt("AI_BURST_LIMIT"),
			BurstWindow:      duration("AI_BURST_WINDOW"),
			DailyLimit:       v.GetInt("AI_DAILY_LIMIT"),
			DailyWindow:      duration("AI_DAILY_WINDOW"),
			QuotaBypass:      v.GetBool("AI_QUOTA_BYPASS"),
			FailureThreshold: v.GetInt("RATELIMIT_BREAKER_FAILURES"),
			SuccessThreshold: v.GetInt("RATELIMIT_BREAKER_SUCCESSES"),
			SweepInterval:    duration("RATELIMIT_SWEEP_INTERVAL"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT"),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			URL:           v.GetString("DATABASE_URL"),
			MaxConns:      v.GetInt32("DATABASE_MAX_CONNS"),
			PurgeInterval: duration("DATABASE_PURGE_INTERVAL"),
		},
		Audit: AuditConfig{
			KafkaBrokers:    pstrings.SplitList(v.GetString("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:      v.GetString("AUDIT_KAFKA_TOPIC"),
			KafkaPartitions: v.GetInt32("AUDIT_KAFKA_PARTITIONS"),
		},
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("BODY_LIMIT_BYTES", 100*1024)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_TIMEOUT", "60s")
	v.SetDefault("AI_BURST_LIMIT", 5)
	v.SetDefault("AI_BURST_WINDOW", "60s")
	v.SetDefault("AI_DAILY_LIMIT", 20)
	v.SetDefault("AI_DAILY_WINDOW", "24h")
	v.SetDefault("RATELIMIT_BREAKER_FAILURES", 5)
	v.SetDefault("RATELIMIT_BREAKER_SUCCESSES", 3)
	v.SetDefault("RATELIMIT_SWEEP_INTERVAL", "5m")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("DATABASE_PURGE_INTERVAL", "1h")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "ai-gateway.audit")
	v.SetDefault("AUDIT_KAFKA_PARTITIONS", 3)
}

// listenAddr prefers AI_GATEWAY_ADDR and falls back to ":$PORT".
func listenAddr(v *viper.Viper) string {
	if addr := strings.TrimSpace(v.GetString("AI_GATEWAY_ADDR")); addr != "" {
		return addr
	}
	return ":" + strings.TrimSpace(v.GetString("PORT"))
}

// parseDuration accepts Go durations ("90s", "1m30s") and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func loadDotEnv() error {
	if strings.EqualFold(os.Getenv("APP_ENV"), EnvProduction) {
		return nil
	}
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}
