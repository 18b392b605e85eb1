package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Sampler     SamplerConfig     `mapstructure:"sampler"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Export      ExportConfig      `mapstructure:"export"`
	Session     SessionConfig     `mapstructure:"session"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Security    SecurityConfig    `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type CatalogConfig struct {
	Source      string `mapstructure:"source"` // csv, postgres
	MoviesPath  string `mapstructure:"movies_path"`
	RatingsPath string `mapstructure:"ratings_path"`
}

type SamplerConfig struct {
	Size         int    `mapstructure:"size"`
	Mode         string `mapstructure:"mode"` // uniform, rerank, weighted
	Rounds       int    `mapstructure:"rounds"`
	PoolCap      int    `mapstructure:"pool_cap"`
	NoiseSize    int    `mapstructure:"noise_size"`
	FallbackSize int    `mapstructure:"fallback_size"`
	Seed         int64  `mapstructure:"seed"`
}

type PreferencesConfig struct {
	MinRating float64 `mapstructure:"min_rating"`
	TopGenres int     `mapstructure:"top_genres"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type SessionConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	APIKeys   map[string]string `mapstructure:"api_keys"` // key -> tier
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "csv":
		if c.Catalog.MoviesPath == "" || c.Catalog.RatingsPath == "" {
			return fmt.Errorf("catalog.movies_path and catalog.ratings_path are required for csv source")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres catalog source")
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}

	switch c.Sampler.Mode {
	case "uniform", "rerank", "weighted":
	default:
		return fmt.Errorf("unknown sampler.mode %q", c.Sampler.Mode)
	}

	if c.Sampler.Size <= 0 {
		return fmt.Errorf("sampler.size must be positive, got %d", c.Sampler.Size)
	}
	if c.Preferences.MinRating < 1 || c.Preferences.MinRating > 5 {
		return fmt.Errorf("preferences.min_rating must be within [1, 5], got %v", c.Preferences.MinRating)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")

	// Catalog defaults
	v.SetDefault("catalog.source", "csv")
	v.SetDefault("catalog.movies_path", "./data/movies.csv")
	v.SetDefault("catalog.ratings_path", "./data/ratings.csv")

	// Sampler defaults
	v.SetDefault("sampler.size", 10)
	v.SetDefault("sampler.mode", "rerank")
	v.SetDefault("sampler.rounds", 3)
	v.SetDefault("sampler.pool_cap", 50)
	v.SetDefault("sampler.noise_size", 10)
	v.SetDefault("sampler.fallback_size", 0)
	v.SetDefault("sampler.seed", 0)

	// Preference defaults
	v.SetDefault("preferences.min_rating", 4.0)
	v.SetDefault("preferences.top_genres", 3)

	v.SetDefault("export.dir", "./exports")

	v.SetDefault("session.enabled", true)
	v.SetDefault("session.ttl", "1h")

	// Database defaults
	v.SetDefault("database.max_connections", 5)
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", "5s")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "recommendation-events")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.rate_limit.enabled", true)
	v.SetDefault("auth.rate_limit.default", 600)
	v.SetDefault("auth.rate_limit.premium", 6000)
	v.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
