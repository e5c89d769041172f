package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/manhwa"
	"github.com/fwojciec/manhwa/goquery"
	"github.com/fwojciec/manhwa/hcl"
	manhwahttp "github.com/fwojciec/manhwa/http"
	"github.com/fwojciec/manhwa/registry"
	"github.com/fwojciec/manhwa/rod"
	mslog "github.com/fwojciec/manhwa/slog"
	"github.com/fwojciec/manhwa/websocket"
	"github.com/fwojciec/manhwa/yaml"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher replaces the configured page transport. Set before calling
	// Run(). Main does not close a fetcher it did not open.
	Fetcher manhwa.Fetcher

	// Registry is available after Run() has scanned the plugin directory.
	Registry *registry.Registry

	hub     *websocket.Hub
	fetcher manhwa.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.Registry != nil {
		errs = append(errs, m.Registry.Close())
	}
	if m.hub != nil {
		errs = append(errs, m.hub.Close())
	}
	if m.fetcher != nil {
		errs = append(errs, m.fetcher.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("manhwad"),
		kong.Description("Webcomic aggregator serving hot-reloaded site plugins."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'manhwad --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Set MANHWA_CONFIG or --config to a readable YAML file\n")
		return err
	}
	cli.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fetcher, err := m.openFetcher(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	catalog := manhwa.NewCatalog()
	goquery.Register(catalog, mslog.NewLoggingFetcher(fetcher, logger))

	m.hub = websocket.NewHub(websocket.WithLogger(logger))
	m.Registry = registry.New(catalog,
		registry.WithLogger(logger),
		registry.WithObserver(m.hub),
		registry.WithDecoder(hcl.NewDecoder(), hcl.Extensions...),
		registry.WithDecoder(yaml.NewDecoder(), yaml.Extensions...),
	)
	if err := m.Registry.ScanDirectory(ctx, cfg.PluginDir); err != nil {
		fmt.Fprintf(stderr, "Hint: Set MANHWA_PLUGINS or --plugin-dir to an existing directory\n")
		return err
	}

	deps.Logger = logger
	deps.Config = cfg
	deps.Registry = m.Registry
	deps.Extractors = mslog.NewLoggingLookup(m.Registry, logger)
	deps.Hub = m.hub

	return kongCtx.Run(deps)
}

// openFetcher returns m.Fetcher when set, otherwise the transport named by
// the configuration.
func (m *Main) openFetcher(cfg *Config) (manhwa.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}

	switch cfg.Fetcher {
	case FetcherBrowser:
		f, err := rod.NewFetcher(rod.WithFetchTimeout(cfg.FetchTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		m.fetcher = f
	default:
		opts := []manhwahttp.Option{manhwahttp.WithTimeout(cfg.FetchTimeout)}
		if cfg.UserAgent != "" {
			opts = append(opts, manhwahttp.WithUserAgent(cfg.UserAgent))
		}
		m.fetcher = manhwahttp.NewFetcher(opts...)
	}
	return m.fetcher, nil
}
