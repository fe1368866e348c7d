package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Invoicing InvoicingConfig
	Notifier  NotifierConfig
	Cache     CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// InvoicingConfig carries the billing constants. Tolerances and VAT rate
// default to the contractual values but may be overridden per deployment.
// Decimal values are kept as strings and parsed once at service construction.
type InvoicingConfig struct {
	VATRatePercent     string
	RateTolerance      string
	HoursAbsTolerance  string
	HoursRelTolerance  string
	NumberPrefix       string
	DefaultPaymentDays int
}

// NotifierConfig points at the outbound email/SMS gateway.
type NotifierConfig struct {
	EmailEndpoint string
	SMSEndpoint   string
	APIKey        string
	Timeout       time.Duration
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

// CacheConfig tunes the invoice read cache.
type CacheConfig struct {
	Enabled    bool
	InvoiceTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Invoicing = InvoicingConfig{
		VATRatePercent:     v.GetString("INVOICE_VAT_RATE"),
		RateTolerance:      v.GetString("INVOICE_RATE_TOLERANCE"),
		HoursAbsTolerance:  v.GetString("INVOICE_HOURS_ABS_TOLERANCE"),
		HoursRelTolerance:  v.GetString("INVOICE_HOURS_REL_TOLERANCE"),
		NumberPrefix:       v.GetString("INVOICE_NUMBER_PREFIX"),
		DefaultPaymentDays: v.GetInt("INVOICE_DEFAULT_PAYMENT_DAYS"),
	}

	cfg.Notifier = NotifierConfig{
		EmailEndpoint: v.GetString("NOTIFIER_EMAIL_ENDPOINT"),
		SMSEndpoint:   v.GetString("NOTIFIER_SMS_ENDPOINT"),
		APIKey:        v.GetString("NOTIFIER_API_KEY"),
		Timeout:       parseDuration(v.GetString("NOTIFIER_TIMEOUT"), 10*time.Second),
		Workers:       v.GetInt("NOTIFIER_WORKERS"),
		MaxRetries:    v.GetInt("NOTIFIER_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("NOTIFIER_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		InvoiceTTL: parseDuration(v.GetString("INVOICE_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stafflink_finance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INVOICE_VAT_RATE", "20")
	v.SetDefault("INVOICE_RATE_TOLERANCE", "0.01")
	v.SetDefault("INVOICE_HOURS_ABS_TOLERANCE", "0.25")
	v.SetDefault("INVOICE_HOURS_REL_TOLERANCE", "0.1")
	v.SetDefault("INVOICE_NUMBER_PREFIX", "INV")
	v.SetDefault("INVOICE_DEFAULT_PAYMENT_DAYS", 30)

	v.SetDefault("NOTIFIER_EMAIL_ENDPOINT", "http://localhost:9090/send-email")
	v.SetDefault("NOTIFIER_SMS_ENDPOINT", "http://localhost:9090/send-sms")
	v.SetDefault("NOTIFIER_API_KEY", "")
	v.SetDefault("NOTIFIER_TIMEOUT", "10s")
	v.SetDefault("NOTIFIER_WORKERS", 2)
	v.SetDefault("NOTIFIER_MAX_RETRIES", 3)
	v.SetDefault("NOTIFIER_RETRY_DELAY", "5s")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("INVOICE_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
