package seatable

import (
	"net/http"
	"time"
)

const (
	defaultPageSize   = 1000
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
)

// Config holds configuration for the SeaTable source
type Config struct {
	ServerURL  string       // e.g. https://cloud.seatable.io
	APIToken   string       // base API token
	PageSize   int          // rows per list request (default: 1000)
	MaxRetries int          // retries on 429/5xx and network errors (default: 3)
	HTTPClient *http.Client // base client (default: 30s timeout)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return ErrMissingServerURL
	}
	if c.APIToken == "" {
		return ErrMissingAPIToken
	}
	return nil
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return cfg
}
