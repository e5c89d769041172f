package main_test

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/manhwa/cmd/manhwad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	for _, cmd := range []string{"serve", "plugins", "search", "work"} {
		assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_Apply(t *testing.T) {
	t.Parallel()

	t.Run("set flags override the config", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{
			PluginDir: "/srv/plugins",
			Fetcher:   main.FetcherBrowser,
			LogLevel:  "debug",
			Serve:     main.ServeCmd{Addr: ":8080", Watch: true},
		}
		cfg := main.DefaultConfig()

		cli.Apply(cfg)

		assert.Equal(t, "/srv/plugins", cfg.PluginDir)
		assert.Equal(t, main.FetcherBrowser, cfg.Fetcher)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.True(t, cfg.Watch)
	})

	t.Run("unset flags keep the config", func(t *testing.T) {
		t.Parallel()

		cfg := &main.Config{Addr: ":9000", PluginDir: "mine", Watch: true, Fetcher: main.FetcherHTTP, LogLevel: "warn"}

		(&main.CLI{}).Apply(cfg)

		assert.Equal(t, &main.Config{Addr: ":9000", PluginDir: "mine", Watch: true, Fetcher: main.FetcherHTTP, LogLevel: "warn"}, cfg)
	})
}

func TestCLI_EnvFallbacks(t *testing.T) {
	t.Setenv("MANHWA_PLUGINS", "/from/env")
	t.Setenv("MANHWA_ADDR", ":7000")

	cli := &main.CLI{}
	parser, err := kong.New(cli, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"serve"})

	require.NoError(t, err)
	assert.Equal(t, "/from/env", cli.PluginDir)
	assert.Equal(t, ":7000", cli.Serve.Addr)
}
