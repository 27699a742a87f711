package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Quotes      QuotesConfig      `mapstructure:"quotes"`
	Poller      PollerConfig      `mapstructure:"poller"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Hub         HubConfig         `mapstructure:"hub"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Processor   ProcessorConfig   `mapstructure:"processor"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
}

type AppConfig struct {
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"` // e.g., "local", "prod"
	StaticDir string `mapstructure:"static_dir"`
}

func (a AppConfig) ListenAddr() string { return listenAddr(a.Port) }

// listenAddr accepts both "3000" and ":3000" style ports.
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type QuotesConfig struct {
	Backend    string        `mapstructure:"backend"` // "yahoo" or "financego"
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LeaderboardConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type HubConfig struct {
	SnapshotTimeout time.Duration `mapstructure:"snapshot_timeout"`
	SendBuffer      int           `mapstructure:"send_buffer"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" or "redis"
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type GeneratorConfig struct {
	Port        string        `mapstructure:"port"`
	Tickers     []string      `mapstructure:"tickers"`
	Interval    time.Duration `mapstructure:"interval"`
	FailureRate float64       `mapstructure:"failure_rate"`
}

func (g GeneratorConfig) ListenAddr() string { return listenAddr(g.Port) }

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}
	return load()
}

func load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.port", "3000")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.static_dir", "public")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)

	v.SetDefault("quotes.backend", "yahoo")
	v.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.timeout", 4*time.Second)
	v.SetDefault("quotes.rate_per_sec", 2.0)
	v.SetDefault("quotes.burst", 4)

	v.SetDefault("poller.interval", 5*time.Second)
	v.SetDefault("poller.timeout", 4*time.Second)
	v.SetDefault("leaderboard.interval", 2*time.Second)

	v.SetDefault("hub.snapshot_timeout", 4*time.Second)
	v.SetDefault("hub.send_buffer", 256)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 1*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_quotes")
	v.SetDefault("kafka.group_id", "quote-feed-processor")

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("generator.port", "9090")
	v.SetDefault("generator.tickers", []string{"AAPL", "MSFT", "GOOG", "TSLA", "AMZN", "NVDA", "SPY"})
	v.SetDefault("generator.interval", 1*time.Second)
	v.SetDefault("generator.failure_rate", 0.0)

	// "app.port" -> "APP_PORT"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bare PORT variable is what hosting platforms set.
	if err := v.BindEnv("app.port", "APP_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind app.port: %w", err)
	}
	bindEnv(v, "app.env", "app.static_dir")
	bindEnv(v, "logger.level", "logger.development")
	bindEnv(v, "quotes.backend", "quotes.base_url", "quotes.timeout", "quotes.rate_per_sec", "quotes.burst")
	bindEnv(v, "poller.interval", "poller.timeout", "leaderboard.interval")
	bindEnv(v, "hub.snapshot_timeout", "hub.send_buffer")
	bindEnv(v, "cache.backend", "cache.ttl")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "generator.port", "generator.tickers", "generator.interval", "generator.failure_rate")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("app port cannot be empty")
	}
	if c.Poller.Interval <= 0 || c.Leaderboard.Interval <= 0 {
		return fmt.Errorf("poller and leaderboard intervals must be positive")
	}
	switch c.Quotes.Backend {
	case "yahoo", "financego":
	default:
		return fmt.Errorf("unknown quotes backend %q", c.Quotes.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	if c.Generator.Interval <= 0 {
		return fmt.Errorf("generator interval must be positive")
	}
	if c.Processor.NumWorkers <= 0 {
		return fmt.Errorf("processor workers must be positive")
	}
	if c.Generator.FailureRate < 0 || c.Generator.FailureRate > 1 {
		return fmt.Errorf("generator failure rate must be within [0,1]")
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
