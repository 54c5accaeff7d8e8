// Package config loads runtime settings for the exchange chat service from an
// optional YAML file, a .env file and the process environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// RateLimitConfig paces inbound lines per connection. A Burst of 0 disables
// pacing; lines over the limit are delayed, never dropped.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"0"`
	RefillInterval time.Duration `yaml:"refill_interval" env:"RATE_LIMIT_REFILL_INTERVAL" env-default:"1s"`
}

// ServerConfig holds the WebSocket and HTTP listener settings.
type ServerConfig struct {
	Port            string          `yaml:"port" env:"SERVER_PORT" env-default:":8080"`
	AllowedOrigins  []string        `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:8080"`
	MaxMessageSize  int64           `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE" env-default:"1048576"`
	SendBuffer      int             `yaml:"send_buffer" env:"SEND_BUFFER" env-default:"256"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// ExchangeConfig points the rate fetcher at the upstream API.
type ExchangeConfig struct {
	APIURL         string        `yaml:"api_url" env:"EXCHANGE_API_URL" env-default:"https://api.privatbank.ua/p24api/exchange_rates"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"EXCHANGE_REQUEST_TIMEOUT" env-default:"130s"`
	CacheTTL       time.Duration `yaml:"cache_ttl" env:"EXCHANGE_CACHE_TTL" env-default:"720h"`
}

// AuditConfig names the append-only file that records exchange commands.
type AuditConfig struct {
	Path string `yaml:"path" env:"AUDIT_LOG_PATH" env-default:"exchange_log.txt"`
}

// RedisConfig enables the historical rate cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Config holds the complete service configuration.
type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"development"`
	Server   ServerConfig   `yaml:"server"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Audit    AuditConfig    `yaml:"audit"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 1 << 20
	defaultSendBuffer      = 256
		defaultRefillInterval  = time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultAPIURL          = "https://api.privatbank.ua/p24api/exchange_rates"
	defaultRequestTimeout  = 130 * time.Second
	defaultAuditPath       = "exchange_log.txt"
)

// Default returns a Config populated with default values for all settings.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            defaultPort,
			AllowedOrigins:  []string{"http://localhost:8080"},
			MaxMessageSize:  defaultMaxMessageSize,
			SendBuffer:      defaultSendBuffer,
			ShutdownTimeout: defaultShutdownTimeout,
			RateLimit: RateLimitConfig{
				RefillInterval: defaultRefillInterval,
			},
		},
		Exchange: ExchangeConfig{
			APIURL:         defaultAPIURL,
			RequestTimeout: defaultRequestTimeout,
			CacheTTL:       30 * 24 * time.Hour,
		},
		Audit: AuditConfig{Path: defaultAuditPath},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads .env (if present), then either the YAML file named by
// CONFIG_PATH or the environment alone.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Sanitize()
	return &cfg, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// Sanitize replaces out-of-range values with their defaults.
func (c *Config) Sanitize() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxMessageSize <= 0 {
		c.Server.MaxMessageSize = defaultMaxMessageSize
	}
	if c.Server.SendBuffer <= 0 {
		c.Server.SendBuffer = defaultSendBuffer
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Server.RateLimit.Burst < 0 {
		c.Server.RateLimit.Burst = 0
	}
	if c.Server.RateLimit.RefillInterval <= 0 {
		c.Server.RateLimit.RefillInterval = defaultRefillInterval
	}
	if c.Exchange.APIURL == "" {
		c.Exchange.APIURL = defaultAPIURL
	}
	if c.Exchange.RequestTimeout <= 0 {
		c.Exchange.RequestTimeout = defaultRequestTimeout
	}
	if c.Exchange.CacheTTL < 0 {
		c.Exchange.CacheTTL = 0
	}
	if c.Audit.Path == "" {
		c.Audit.Path = defaultAuditPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
