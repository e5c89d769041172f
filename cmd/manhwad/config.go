package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/manhwa"
	"gopkg.in/yaml.v3"
)

// Page transports selectable with the fetcher setting.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config holds the settings of the program. Values come from defaults, then
// the optional YAML file, then command-line flags.
type Config struct {
	Addr         string        `yaml:"addr"`
	PluginDir    string        `yaml:"plugin_dir"`
	Watch        bool          `yaml:"watch"`
	Fetcher      string        `yaml:"fetcher"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	UserAgent    string        `yaml:"user_agent"`
	LogLevel     string        `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":3000",
		PluginDir:    "plugins",
		Fetcher:      FetcherHTTP,
		FetchTimeout: 10 * time.Second,
		LogLevel:     "info",
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, manhwa.Errorf(manhwa.EINVALID, "open config %s: %v", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, manhwa.Errorf(manhwa.EINVALID, "parse config %s: %v", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.PluginDir == "" {
		return manhwa.Errorf(manhwa.EINVALID, "plugin directory required")
	}
	switch c.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return manhwa.Errorf(manhwa.EINVALID, "unknown fetcher %q, want %q or %q", c.Fetcher, FetcherHTTP, FetcherBrowser)
	}
	if c.FetchTimeout <= 0 {
		return manhwa.Errorf(manhwa.EINVALID, "fetch timeout must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, manhwa.Errorf(manhwa.EINVALID, "unknown log level %q", c.LogLevel)
	}
	return level, nil
}
