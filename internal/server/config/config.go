// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Key format values accepted by the service.
const (
	// KeyFormatUUID issues uuid4 lookup keys; collisions are negligible so
	// no existence probe is made.
	KeyFormatUUID = "uuid"
	// KeyFormatToken issues short hex tokens for human-readable links; the
	// service probes the store and retries on collision.
	KeyFormatToken = "token"
)

// Config holds runtime settings for the one-time secret server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseDSN: storage backend selector: "inmemory", "sqlite:<path>",
//     or a postgres:// DSN (pgx).
//   - DefaultSecretTTL: expiry applied when a request carries no TTL;
//     zero means such secrets never expire on their own.
//   - ReaperInterval: cadence of the expired-record sweep; zero disables
//     the sweep (expired records stay unreachable either way).
//   - KeyFormat: lookup key style, KeyFormatUUID or KeyFormatToken.
type Config struct {
	EndpointAddr     string
	DatabaseDSN      string
	DefaultSecretTTL time.Duration
	ReaperInterval   time.Duration
	KeyFormat        string
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "inmemory"
	c.DefaultSecretTTL = 24 * time.Hour
	c.ReaperInterval = 1 * time.Minute
	c.KeyFormat = KeyFormatUUID
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
