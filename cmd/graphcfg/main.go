// Package main implements the graphcfg command line tool: it manages
// stored graph templates, expands them into concrete graph
// descriptions, and validates the results.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/c360/graphcfg/config"
	"github.com/c360/graphcfg/metric"
	"github.com/c360/graphcfg/store"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "graphcfg"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, command, err := parseFlags()
	if err != nil {
		return err
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if command == "" || cliCfg.ShowHelp {
		printDetailedHelp()
		if command == "" && !cliCfg.ShowHelp {
			return fmt.Errorf("no command given")
		}
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.LogLevel != "" {
		cfg.Log.Level = cliCfg.LogLevel
	}

	ctx := context.Background()

	switch command {
	case "expand":
		return runExpand(ctx, cfg, logger, cliCfg)
	case "validate":
		return runValidate(cliCfg)
	case "put":
		return runPut(ctx, cfg, logger, cliCfg)
	case "list":
		return runList(ctx, cfg, logger)
	case "delete":
		return runDelete(ctx, cfg, logger, cliCfg)
	case "serve":
		return runServe(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// openStore dials NATS and binds the template bucket per the loaded
// configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, *metric.Registry, error) {
	registry := metric.NewRegistry()

	st, err := store.Connect(ctx, cfg.ServerURL(),
		store.WithBucket(cfg.Store.Bucket),
		store.WithHistory(cfg.Store.History),
		store.WithLogger(logger),
		store.WithMetrics(registry.Metrics))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to template store: %w", err)
	}
	return st, registry, nil
}
