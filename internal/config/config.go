// Package config loads the settings of the ols command.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults matching the public EBI service
//  2. a TOML file, by default $XDG_CONFIG_HOME/ols/config.toml
//  3. OLS_* environment variables
//
// A minimal file looks like:
//
//	site = "https://www.ebi.ac.uk/ols/api"
//	page_size = 50
//	backoff = "2s"
//
//	[headers]
//	User-Agent = "my-pipeline/1.0"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/hal"
	"github.com/matzehuels/olsclient/pkg/httputil"
	"github.com/matzehuels/olsclient/pkg/ols"
)

const appName = "ols"

// Config holds the client settings.
type Config struct {
	Site        string            `toml:"site" env:"OLS_SITE"`
	PageSize    int               `toml:"page_size" env:"OLS_PAGE_SIZE"`
	MaxAttempts int               `toml:"max_attempts" env:"OLS_MAX_ATTEMPTS"`
	Backoff     time.Duration     `toml:"backoff" env:"OLS_BACKOFF"`
	Timeout     time.Duration     `toml:"timeout" env:"OLS_TIMEOUT"`
	RateLimit   float64           `toml:"rate_limit" env:"OLS_RATE_LIMIT"`
	Burst       int               `toml:"burst" env:"OLS_BURST"`
	Headers     map[string]string `toml:"headers"`

	// Path is the file the settings were read from, empty when none was.
	Path string `toml:"-" env:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Site:        ols.DefaultSite,
		PageSize:    ols.DefaultPageSize,
		MaxAttempts: httputil.DefaultMaxAttempts,
		Backoff:     httputil.DefaultBackoff,
		Timeout:     hal.DefaultTimeout,
	}
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/ols/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path and applies environment overrides. An empty
// path uses [DefaultPath], which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

// Validate checks the settings for values the client cannot use.
func (c *Config) Validate() error {
	if err := olserrors.ValidateURL(c.Site); err != nil {
		return fmt.Errorf("config: site %q: %w", c.Site, err)
	}
	switch {
	case c.PageSize <= 0:
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("config: max_attempts must be positive, got %d", c.MaxAttempts)
	case c.Backoff < 0:
		return fmt.Errorf("config: backoff must not be negative, got %s", c.Backoff)
	case c.Timeout < 0:
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	case c.RateLimit < 0:
		return fmt.Errorf("config: rate_limit must not be negative, got %g", c.RateLimit)
	}
	return nil
}

// ClientOptions converts the settings to client options.
func (c *Config) ClientOptions(logger *log.Logger) []ols.Option {
	opts := []ols.Option{
		ols.WithSite(c.Site),
		ols.WithPageSize(c.PageSize),
		ols.WithRetrier(httputil.NewRetrier(c.MaxAttempts, c.Backoff, logger)),
		ols.WithTimeout(c.Timeout),
	}
	if logger != nil {
		opts = append(opts, ols.WithLogger(logger))
	}
	if c.RateLimit > 0 {
		opts = append(opts, ols.WithRateLimit(c.RateLimit, c.Burst))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, ols.WithHeaders(c.Headers))
	}
	return opts
}
