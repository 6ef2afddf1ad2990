// Package config defines the proxy's command-line surface: a Config struct
// with pflag-bound fields, consumed by the proxyserver command.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Config holds every value the proxy needs to start serving.
type Config struct {
	ListenAddr     string
	ResolverPool   int
	DNSCacheSize   int
	ResponseCache  int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	MetricsAddr    string
	LogLevel       string
}

// Default returns the stock configuration: resolver pool 5, DNS cache 500
// entries, response cache 10000 entries.
func Default() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		ResolverPool:   5,
		DNSCacheSize:   500,
		ResponseCache:  10000,
		IdleTimeout:    3 * time.Minute,
		ConnectTimeout: 10 * time.Second,
		MetricsAddr:    "127.0.0.1:9090",
		LogLevel:       "info",
	}
}

// BindFlags registers c's fields onto fs, pre-populated with c's current
// values as defaults. Call after Default() and before fs.Parse.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "address to accept client connections on")
	fs.IntVar(&c.ResolverPool, "resolver-threads", c.ResolverPool, "number of resolver worker goroutines")
	fs.IntVar(&c.DNSCacheSize, "dns-cache-size", c.DNSCacheSize, "maximum DNS cache entries")
	fs.IntVar(&c.ResponseCache, "response-cache-size", c.ResponseCache, "maximum response cache entries")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "inbound idle timeout before force-disconnect")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", c.ConnectTimeout, "outbound connect timeout")
	fs.StringVar(&c.MetricsAddr, "metrics-listen", c.MetricsAddr, "address to serve Prometheus metrics on; empty disables it")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
}

// Validate rejects configurations the engine cannot start with.
func (c Config) Validate() error {
	if c.ResolverPool <= 0 {
		return fmt.Errorf("config: resolver-threads must be positive, got %d", c.ResolverPool)
	}
	if c.DNSCacheSize <= 0 {
		return fmt.Errorf("config: dns-cache-size must be positive, got %d", c.DNSCacheSize)
	}
	if c.ResponseCache <= 0 {
		return fmt.Errorf("config: response-cache-size must be positive, got %d", c.ResponseCache)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	return nil
}
