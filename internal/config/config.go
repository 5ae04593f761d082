package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	StoreDriver          string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI             string        `mapstructure:"MONGO_URI"`
	MongoDatabase        string        `mapstructure:"MONGO_DATABASE"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	ScheduleCacheTTL     time.Duration `mapstructure:"SCHEDULE_CACHE_TTL"`
	KafkaBrokers         []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic           string        `mapstructure:"KAFKA_TOPIC"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey       string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	StoreTimeout         time.Duration `mapstructure:"STORE_TIMEOUT"`
	BreakerMaxFailures   uint32        `mapstructure:"BREAKER_MAX_FAILURES"`
	BreakerOpenTimeout   time.Duration `mapstructure:"BREAKER_OPEN_TIMEOUT"`
	ScheduleHorizonWeeks int           `mapstructure:"SCHEDULE_HORIZON_WEEKS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DATABASE", "medconnect")
	v.SetDefault("SCHEDULE_CACHE_TTL", "2m")
	v.SetDefault("KAFKA_TOPIC", "medconnect.bookings")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("SCHEDULE_HORIZON_WEEKS", 4)

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORE_DRIVER",
		"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"MONGO_URI", "MONGO_DATABASE",
		"REDIS_URL", "SCHEDULE_CACHE_TTL",
		"KAFKA_BROKERS", "KAFKA_TOPIC",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"REQUEST_TIMEOUT", "STORE_TIMEOUT",
		"BREAKER_MAX_FAILURES", "BREAKER_OPEN_TIMEOUT",
		"SCHEDULE_HORIZON_WEEKS",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required")
		}
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is required so bearer tokens can be verified.
func (c *Config) Validate() error {
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMongo {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMongo, c.StoreDriver)
	}
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.ScheduleHorizonWeeks < 1 || c.ScheduleHorizonWeeks > 52 {
		return fmt.Errorf("SCHEDULE_HORIZON_WEEKS must be between 1 and 52, got %d", c.ScheduleHorizonWeeks)
	}
	return nil
}
