package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/manhwa"
	"github.com/fwojciec/manhwa/registry"
	"github.com/fwojciec/manhwa/websocket"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Config     *Config
	Registry   *registry.Registry
	Extractors manhwa.ExtractorLookup
	Hub        *websocket.Hub
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `short:"c" env:"MANHWA_CONFIG" help:"YAML config file"`
	PluginDir string `short:"p" name:"plugin-dir" env:"MANHWA_PLUGINS" help:"Directory of plugin descriptors"`
	Fetcher   string `help:"Page transport (http or browser)"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`

	Serve   ServeCmd   `cmd:"" help:"Serve loaded plugins over HTTP"`
	Plugins PluginsCmd `cmd:"" help:"List loaded plugins"`
	Search  SearchCmd  `cmd:"" help:"Search a plugin's site by title"`
	Work    WorkCmd    `cmd:"" help:"Fetch a work and its chapters"`
}

// Apply overrides cfg with the flags that were set.
func (c *CLI) Apply(cfg *Config) {
	if c.PluginDir != "" {
		cfg.PluginDir = c.PluginDir
	}
	if c.Fetcher != "" {
		cfg.Fetcher = c.Fetcher
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.Serve.Addr != "" {
		cfg.Addr = c.Serve.Addr
	}
	if c.Serve.Watch {
		cfg.Watch = true
	}
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr  string `short:"a" env:"MANHWA_ADDR" help:"Listen address"`
	Watch bool   `short:"w" help:"Reload plugins when descriptor files change"`
}

// PluginsCmd is the "plugins" subcommand.
type PluginsCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Key   string `arg:"" help:"Plugin key"`
	Title string `arg:"" help:"Title to search for"`
}

// WorkCmd is the "work" subcommand.
type WorkCmd struct {
	Key  string `arg:"" help:"Plugin key"`
	ID   string `arg:"" help:"Work ID on the plugin's site"`
	JSON bool   `help:"Print the work as JSON"`
}
