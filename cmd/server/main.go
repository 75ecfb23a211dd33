package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"offline-gateway/internal/config"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Addr string `help:"Listen address (overrides OFFLINE_GATEWAY_ADDR)"`
	} `cmd:"" default:"1" help:"Run the offline gateway"`

	Caches struct{} `cmd:"" help:"List cache generations in the store"`

	Purge struct{} `cmd:"" help:"Delete every cache generation except the current one"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("offline-gateway"),
		kong.Description("Offline gateway for the dashboard: caching proxy, sync queue and notifications."),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	// Set up logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel, CLI.Verbose),
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "serve":
		if CLI.Serve.Addr != "" {
			cfg.ListenAddr = CLI.Serve.Addr
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Gateway failed", "error", err)
			os.Exit(1)
		}
	case "caches":
		if err := runCaches(cfg, os.Stdout); err != nil {
			slog.Error("Listing caches failed", "error", err)
			os.Exit(1)
		}
	case "purge":
		if err := runPurge(cfg, os.Stdout); err != nil {
			slog.Error("Purge failed", "error", err)
			os.Exit(1)
		}
	}
}

func logLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}
