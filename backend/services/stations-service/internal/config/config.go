package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargemap/backend/libs/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	nearbyCacheAuto        = -1
	defaultNearbyCacheSize = 256
)

// Config defines stations service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"STATIONS_HTTP_PORT"`
	} `yaml:"http"`
	Storage struct {
		Driver string `yaml:"driver" env:"STATIONS_STORAGE"`
	} `yaml:"storage"`
	Database struct {
		DSN string `yaml:"dsn" env:"STATIONS_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"STATIONS_REDIS_ADDR"`
		Password string `yaml:"password" env:"STATIONS_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"STATIONS_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"STATIONS_REDIS_TTL"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
	} `yaml:"jwt"`
	AMQP struct {
		URL      string `yaml:"url" env:"STATIONS_AMQP_URL"`
		Exchange string `yaml:"exchange" env:"STATIONS_AMQP_EXCHANGE"`
	} `yaml:"amqp"`
	Tracing struct {
		Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	} `yaml:"tracing"`
	// NearbyCache is purged only by this process's own events, so with several
	// replicas sharing postgres it would serve stations changed elsewhere. It is on
	// by default for the memory driver and off for postgres; 0 disables it.
	NearbyCache struct {
		Size int           `yaml:"size" env:"STATIONS_NEARBY_CACHE_SIZE"`
		TTL  time.Duration `yaml:"ttl" env:"STATIONS_NEARBY_CACHE_TTL"`
	} `yaml:"nearbyCache"`
	WebSocket struct {
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"STATIONS_WS_WRITE_TIMEOUT"`
	} `yaml:"websocket"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8083"
	cfg.Storage.Driver = StoragePostgres
	cfg.Redis.TTL = 86400
	cfg.AMQP.Exchange = "chargemap.events"
	cfg.NearbyCache.Size = nearbyCacheAuto
	cfg.NearbyCache.TTL = 30 * time.Second
	cfg.WebSocket.WriteTimeout = 10 * time.Second

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.NearbyCache.Size == nearbyCacheAuto {
		cfg.NearbyCache.Size = 0
		if cfg.Storage.Driver == StorageMemory {
			cfg.NearbyCache.Size = defaultNearbyCacheSize
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings. The JWT secret is only needed to serve and is
// checked by the app.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoragePostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.NearbyCache.Size < 0 {
		return errors.New("config: nearby cache size must not be negative")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8083"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveSessionTTL returns ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
