package config

import "time"

// Config is the root configuration for a relay instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Market   MarketConfig   `yaml:"market"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// UpstreamConfig holds the exchange quote feed settings.
type UpstreamConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MarketConfig defines the supported trading universe. Symbols are formed
// as "{ASSET}_{QUOTE_CURRENCY}" and fixed for the process lifetime.
type MarketConfig struct {
	Assets        []string `yaml:"assets"`
	QuoteCurrency string   `yaml:"quote_currency"`
}

// StorageConfig selects and configures the price history backend.
type StorageConfig struct {
	Backend  string      `yaml:"backend"` // "postgres", "redis", or "memory"
	Postgres DBConfig    `yaml:"postgres"`
	Redis    RedisConfig `yaml:"redis"`
}

// DBConfig holds a PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds a Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig holds WebSocket server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Path         string        `yaml:"path"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PongWait     time.Duration `yaml:"pong_wait"`
}

// StreamConfig holds per-session streaming settings.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// SupportedSymbols builds the read-only supported-symbol set from the
// configured assets and quote currency.
func (c *Config) SupportedSymbols() map[string]struct{} {
	symbols := make(map[string]struct{}, len(c.Market.Assets))
	for _, asset := range c.Market.Assets {
		symbols[asset+"_"+c.Market.QuoteCurrency] = struct{}{}
	}
	return symbols
}
