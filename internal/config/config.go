// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultQueueTTL           = 20 * time.Minute
	DefaultBatchSize          = 5
	DefaultRotationInterval   = 60 * time.Second
	MinRotationInterval       = 30 * time.Second
	MaxRotationInterval       = 120 * time.Second
	DefaultReservationHorizon = 2 * time.Hour
	DefaultMaxReservation     = 2 * time.Hour
	DefaultStoreTimeout       = 5 * time.Second
	DefaultNotifyCron         = "* * * * *"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	MaxDuration  time.Duration `yaml:"max_duration"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
}

type GotNextConfig struct {
	QueueTTL  time.Duration `yaml:"queue_ttl"`
	BatchSize int           `yaml:"batch_size"`
	// RotationInterval must stay inside [30s, 120s] and below QueueTTL.
	RotationInterval time.Duration `yaml:"rotation_interval"`
	// ReservationHorizon is how far ahead a reservation blocks joining.
	ReservationHorizon  time.Duration `yaml:"reservation_horizon"`
	RotationConcurrency int           `yaml:"rotation_concurrency"`
}

type AMQPConfig struct {
	URL        string `yaml:"-"` // Loaded from environment
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

type NotifyConfig struct {
	Enabled    bool       `yaml:"enabled"`
	Cron       string     `yaml:"cron"`
	BatchLimit int        `yaml:"batch_limit"`
	AMQP       AMQPConfig `yaml:"amqp"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"-"` // Loaded from environment
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type RateLimitConfig struct {
	Cooldown          time.Duration `yaml:"cooldown"`
	MaxPerHour        int           `yaml:"max_per_hour"`
	MaxPerIPPerHour   int           `yaml:"max_per_ip_per_hour"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	GotNext  GotNextConfig  `yaml:"got_next"`
	Notify   NotifyConfig   `yaml:"notify"`
	Redis    RedisConfig    `yaml:"redis"`

	// RateLimit throttles got next joins and bookings.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Notify.AMQP.URL = os.Getenv("AMQP_URL")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and fills unset values with defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Booking.MaxDuration == 0 {
		c.Booking.MaxDuration = DefaultMaxReservation
	}
	if c.Booking.StoreTimeout == 0 {
		c.Booking.StoreTimeout = DefaultStoreTimeout
	}
	if c.GotNext.QueueTTL == 0 {
		c.GotNext.QueueTTL = DefaultQueueTTL
	}
	if c.GotNext.BatchSize == 0 {
		c.GotNext.BatchSize = DefaultBatchSize
	}
	if c.GotNext.RotationInterval == 0 {
		c.GotNext.RotationInterval = DefaultRotationInterval
	}
	if c.GotNext.ReservationHorizon == 0 {
		c.GotNext.ReservationHorizon = DefaultReservationHorizon
	}
	if c.GotNext.RotationConcurrency == 0 {
		c.GotNext.RotationConcurrency = 4
	}
	if c.Notify.Cron == "" {
		c.Notify.Cron = DefaultNotifyCron
	}
	if c.Notify.BatchLimit == 0 {
		c.Notify.BatchLimit = 100
	}
	if c.Notify.AMQP.Exchange == "" {
		c.Notify.AMQP.Exchange = "gotnext.events"
	}
	if c.Notify.AMQP.RoutingKey == "" {
		c.Notify.AMQP.RoutingKey = "gotnext.promoted"
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 2 * time.Minute
	}
	if c.RateLimit.MaxPerHour == 0 {
		c.RateLimit.MaxPerHour = 60
	}
	if c.RateLimit.MaxPerIPPerHour == 0 {
		c.RateLimit.MaxPerIPPerHour = 300
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.MaxDuration <= 0 {
		return fmt.Errorf("booking max_duration must be positive")
	}
	if c.Booking.StoreTimeout <= 0 {
		return fmt.Errorf("booking store_timeout must be positive")
	}

	if c.GotNext.QueueTTL <= 0 {
		return fmt.Errorf("got_next queue_ttl must be positive")
	}
	if c.GotNext.BatchSize <= 0 {
		return fmt.Errorf("got_next batch_size must be positive")
	}
	if c.GotNext.RotationInterval < MinRotationInterval || c.GotNext.RotationInterval > MaxRotationInterval {
		return fmt.Errorf("got_next rotation_interval must be between %s and %s", MinRotationInterval, MaxRotationInterval)
	}
	if c.GotNext.RotationInterval >= c.GotNext.QueueTTL {
		return fmt.Errorf("got_next rotation_interval must be shorter than queue_ttl")
	}
	if c.GotNext.ReservationHorizon < 0 {
		return fmt.Errorf("got_next reservation_horizon must not be negative")
	}
	if c.GotNext.RotationConcurrency < 1 {
		return fmt.Errorf("got_next rotation_concurrency must be at least 1")
	}

	if c.RateLimit.Cooldown < 0 {
		return fmt.Errorf("rate_limit cooldown must not be negative")
	}

	if c.Notify.Enabled {
		if _, err := cron.ParseStandard(c.Notify.Cron); err != nil {
			return fmt.Errorf("notify cron %q is invalid: %w", c.Notify.Cron, err)
		}
		if c.Notify.BatchLimit <= 0 {
			return fmt.Errorf("notify batch_limit must be positive")
		}
	}

	return nil
}
