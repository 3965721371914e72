// Package config loads runtime settings for the jotkeeper CLI.
package config

import "time"

// Config holds runtime settings for the jotkeeper CLI.
//
// Fields:
//   - CachePath: path of the local cache database file.
//   - RemoteDSN: Postgres DSN of the remote document store. Empty means
//     signed-out, local-only mode.
//   - UserID: the user whose collections this client reads and writes.
//   - OnlineCheckInterval: how often the client probes remote reachability.
type Config struct {
	CachePath           string
	RemoteDSN           string
	UserID              string
	OnlineCheckInterval time.Duration
}

// SignedIn reports whether a remote store is configured.
func (c *Config) SignedIn() bool {
	return c.RemoteDSN != "" && c.UserID != ""
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.CachePath = "jotkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
