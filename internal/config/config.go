package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                     string
	AppEnv                   string
	LogLevel                 string
	DatabaseURL              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	RedisAddr                string
	RedisPassword            string
	LockTTLSeconds           int
	JWTSecret                string
	JWTIssuer                string
	AdminSubjects            []string
	OpenAIAPIKey             string
	OpenAIImageModel         string
	OpenAIImageSize          string
	ImageTimeoutSeconds      int
	ImageConcurrency         int
	RateLimitPerSecond       float64
	RateLimitBurst           int
	CORSOrigins              []string
	SeedCards                bool
	MetricsNamespace         string
}

func Default() Config {
	return Config{
		Port:                     "8080",
		AppEnv:                   "production",
		LogLevel:                 "info",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		LockTTLSeconds:           10,
		JWTIssuer:                "",
		OpenAIImageModel:         "dall-e-3",
		OpenAIImageSize:          "1024x1024",
		ImageTimeoutSeconds:      30,
		ImageConcurrency:         4,
		RateLimitPerSecond:       5,
		RateLimitBurst:           10,
		SeedCards:                true,
		MetricsNamespace:         "czar_party",
	}
}

func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load layers defaults, an optional config.yaml in dir, and environment
// variables (highest precedence). Call LoadDotEnv first to pick up .env.
func Load(dir string) (Config, error) {
	defaults := Default()
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AutomaticEnv()

	v.SetDefault("port", defaults.Port)
	v.SetDefault("app_env", defaults.AppEnv)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("database_url", "")
	v.SetDefault("db_max_open_conns", defaults.DBMaxOpenConns)
	v.SetDefault("db_max_idle_conns", defaults.DBMaxIdleConns)
	v.SetDefault("db_conn_max_lifetime_seconds", defaults.DBConnMaxLifetimeSeconds)
	v.SetDefault("db_conn_max_idle_seconds", defaults.DBConnMaxIdleTimeSeconds)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("lock_ttl_seconds", defaults.LockTTLSeconds)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", defaults.JWTIssuer)
	v.SetDefault("admin_subjects", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_image_model", defaults.OpenAIImageModel)
	v.SetDefault("openai_image_size", defaults.OpenAIImageSize)
	v.SetDefault("image_timeout_seconds", defaults.ImageTimeoutSeconds)
	v.SetDefault("image_concurrency", defaults.ImageConcurrency)
	v.SetDefault("rate_limit_per_second", defaults.RateLimitPerSecond)
	v.SetDefault("rate_limit_burst", defaults.RateLimitBurst)
	v.SetDefault("cors_origins", "")
	v.SetDefault("seed_cards", defaults.SeedCards)
	v.SetDefault("metrics_namespace", defaults.MetricsNamespace)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	cfg := Config{
		Port:                     v.GetString("port"),
		AppEnv:                   v.GetString("app_env"),
		LogLevel:                 v.GetString("log_level"),
		DatabaseURL:              v.GetString("database_url"),
		DBMaxOpenConns:           positiveOr(v.GetInt("db_max_open_conns"), defaults.DBMaxOpenConns),
		DBMaxIdleConns:           positiveOr(v.GetInt("db_max_idle_conns"), defaults.DBMaxIdleConns),
		DBConnMaxLifetimeSeconds: positiveOr(v.GetInt("db_conn_max_lifetime_seconds"), defaults.DBConnMaxLifetimeSeconds),
		DBConnMaxIdleTimeSeconds: positiveOr(v.GetInt("db_conn_max_idle_seconds"), defaults.DBConnMaxIdleTimeSeconds),
		RedisAddr:                v.GetString("redis_addr"),
		RedisPassword:            v.GetString("redis_password"),
		LockTTLSeconds:           positiveOr(v.GetInt("lock_ttl_seconds"), defaults.LockTTLSeconds),
		JWTSecret:                v.GetString("jwt_secret"),
		JWTIssuer:                v.GetString("jwt_issuer"),
		AdminSubjects:            splitList(v.GetString("admin_subjects")),
		OpenAIAPIKey:             v.GetString("openai_api_key"),
		OpenAIImageModel:         v.GetString("openai_image_model"),
		OpenAIImageSize:          v.GetString("openai_image_size"),
		ImageTimeoutSeconds:      positiveOr(v.GetInt("image_timeout_seconds"), defaults.ImageTimeoutSeconds),
		ImageConcurrency:         positiveOr(v.GetInt("image_concurrency"), defaults.ImageConcurrency),
		RateLimitPerSecond:       v.GetFloat64("rate_limit_per_second"),
		RateLimitBurst:           positiveOr(v.GetInt("rate_limit_burst"), defaults.RateLimitBurst),
		CORSOrigins:              splitList(v.GetString("cors_origins")),
		SeedCards:                v.GetBool("seed_cards"),
		MetricsNamespace:         v.GetString("metrics_namespace"),
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = defaults.RateLimitPerSecond
	}
	return cfg, nil
}

func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutSeconds) * time.Second
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
