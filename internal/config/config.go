package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. QRORDER_API_BASE_URL
const EnvPrefix = "QRORDER"

// Config is the full configuration of the client and the development backend
type Config struct {
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`

	API API `yaml:"api" envconfig:"API"`

	Storage Storage `yaml:"storage" envconfig:"STORAGE"`

	Cache Cache `yaml:"cache" envconfig:"CACHE"`

	Logging Logging `yaml:"logging" envconfig:"LOGGING"`

	Monitoring Monitoring `yaml:"monitoring" envconfig:"MONITORING"`

	Push Push `yaml:"push" envconfig:"PUSH"`

	Server Server `yaml:"server" envconfig:"SERVER"`

	JWT JWT `yaml:"jwt" envconfig:"JWT"`
}

// API configures the REST client
type API struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Debug   bool          `yaml:"debug" envconfig:"DEBUG"`
}

// Storage selects where auth state is persisted
type Storage struct {
	Driver      string `yaml:"driver" envconfig:"DRIVER"` // memory, sqlite, postgres, redis
	DSN         string `yaml:"dsn" envconfig:"DSN"`
	RedisAddr   string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisDB     int    `yaml:"redis_db" envconfig:"REDIS_DB"`
	RedisPrefix string `yaml:"redis_prefix" envconfig:"REDIS_PREFIX"`
}

// Cache holds the freshness policy of each cached resource
type Cache struct {
	SessionStale  time.Duration `yaml:"session_stale" envconfig:"SESSION_STALE"`
	SessionRetry  int           `yaml:"session_retry" envconfig:"SESSION_RETRY"`
	MenuStale     time.Duration `yaml:"menu_stale" envconfig:"MENU_STALE"`
	CartPoll      time.Duration `yaml:"cart_poll" envconfig:"CART_POLL"`
	HistoryStale  time.Duration `yaml:"history_stale" envconfig:"HISTORY_STALE"`
	AdminStale    time.Duration `yaml:"admin_stale" envconfig:"ADMIN_STALE"`
	SeatStale     time.Duration `yaml:"seat_stale" envconfig:"SEAT_STALE"`
	SeatQRStale   time.Duration `yaml:"seat_qr_stale" envconfig:"SEAT_QR_STALE"`
	StatsStale    time.Duration `yaml:"stats_stale" envconfig:"STATS_STALE"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	QueryRetry    int           `yaml:"query_retry" envconfig:"QUERY_RETRY"`
	RefreshWithin time.Duration `yaml:"refresh_within" envconfig:"REFRESH_WITHIN"`
}

// Logging configures logrus
type Logging struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"` // text or json
}

// Monitoring configures error reporting
type Monitoring struct {
	Enabled bool     `yaml:"enabled" envconfig:"ENABLED"`
	Brokers []string `yaml:"brokers" envconfig:"BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"TOPIC"`
}

// Push configures the websocket order status feed
type Push struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	URL     string `yaml:"url" envconfig:"URL"`
}

// Server configures the development backend
type Server struct {
	Address     string        `yaml:"address" envconfig:"ADDRESS"`
	SessionTTL  time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	CORSOrigins []string      `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
	PublicURL   string        `yaml:"public_url" envconfig:"PUBLIC_URL"`
}

// JWT configures token issuance on the development backend
type JWT struct {
	Secret    string `yaml:"secret" envconfig:"SECRET"`
	ExpiresIn int    `yaml:"expires_in" envconfig:"EXPIRES_IN"` // In Hours
}

// IsDevelopment reports whether development-only behavior is enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: "development",
		API: API{
			BaseURL: "http://localhost:8080/api",
			Timeout: 10 * time.Second,
		},
		Storage: Storage{
			Driver:      "memory",
			RedisPrefix: "pos-qr:",
		},
		Cache: Cache{
			SessionStale:  5 * time.Minute,
			SessionRetry:  3,
			MenuStale:     10 * time.Minute,
			CartPoll:      30 * time.Second,
			HistoryStale:  2 * time.Minute,
			AdminStale:    5 * time.Minute,
			SeatStale:     2 * time.Minute,
			SeatQRStale:   10 * time.Minute,
			StatsStale:    2 * time.Minute,
			RetryDelay:    time.Second,
			QueryRetry:    1,
			RefreshWithin: 5 * time.Minute,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Monitoring: Monitoring{
			Topic: "pos-qr.client-errors",
		},
		Server: Server{
			Address:     ":8080",
			SessionTTL:  2 * time.Hour,
			CORSOrigins: []string{"http://localhost:3000"},
			PublicURL:   "http://localhost:3000",
		},
		JWT: JWT{
			Secret:    "development-secret",
			ExpiresIn: 24,
		},
	}
}

// Load reads the YAML file at CONFIG_PATH (default configs/development.yaml)
// over the defaults, then applies QRORDER_* environment overrides.
// A missing file is not an error.
func Load() (*Config, error) {
	configPath := "configs/development.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	return LoadFile(configPath)
}

// LoadFile is Load with an explicit path
func LoadFile(configPath string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open config %s: %w", configPath, err)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", configPath, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	return cfg, nil
}
