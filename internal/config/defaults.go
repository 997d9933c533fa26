package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultQuoteCurrency   = "CAD"
	DefaultStorageBackend  = "postgres"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultRedisAddr       = "localhost:6379"
	DefaultServerAddr      = ":8000"
	DefaultServerPath      = "/markets/ws/"
	DefaultWriteTimeout    = 5 * time.Second
	DefaultPingInterval    = 50 * time.Second
	DefaultPongWait        = 60 * time.Second
	DefaultStreamInterval  = 1 * time.Second
)

// DefaultAssets is the trading universe used when none is configured.
var DefaultAssets = []string{"BTC", "ETH", "LTC", "XRP", "BCH", "USDC", "XMR", "XLM"}

func (c *Config) applyDefaults() {
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}

	if len(c.Market.Assets) == 0 {
		c.Market.Assets = append([]string(nil), DefaultAssets...)
	}
	if c.Market.QuoteCurrency == "" {
		c.Market.QuoteCurrency = DefaultQuoteCurrency
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	applyDBDefaults(&c.Storage.Postgres)
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = DefaultRedisAddr
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultServerPath
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.PongWait == 0 {
		c.Server.PongWait = DefaultPongWait
	}

	if c.Stream.Interval == 0 {
		c.Stream.Interval = DefaultStreamInterval
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
