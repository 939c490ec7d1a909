package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for the GophBlog CLI.
type Config struct {
	// APIBaseURL is the root of the backend REST API, e.g. http://host/api.
	APIBaseURL string `env:"API_BASE_URL"`
	// AssetsBaseURL is the root that avatar and image paths are relative to.
	// Derived from APIBaseURL when empty.
	AssetsBaseURL string `env:"ASSETS_BASE_URL"`
	// DatabasePath is the local SQLite file holding the session token.
	DatabasePath   string        `env:"DB_PATH"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	// TokenTTL caps how long a login is remembered locally.
	TokenTTL  time.Duration `env:"TOKEN_TTL"`
	LogLevel  string        `env:"LOG_LEVEL"`
	LogFormat string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3000/api"
	c.AssetsBaseURL = ""
	c.DatabasePath = "gophblog.db"
	c.RequestTimeout = 10 * time.Second
	c.TokenTTL = 7 * 24 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from defaults, then the config file at path (if
// any), then .env and GOPHBLOG_* environment variables, then flags in fs that
// were set explicitly. Later sources win. fs may be nil.
func LoadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := applyFlags(fs, cfg); err != nil {
			return nil, err
		}
	}

	cfg.finalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.AssetsBaseURL == "" {
		c.AssetsBaseURL = strings.TrimSuffix(c.APIBaseURL, "/api")
	}
	c.AssetsBaseURL = strings.TrimRight(c.AssetsBaseURL, "/")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: invalid api base url %q", c.APIBaseURL)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database path is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}
