// Command escalation-insights computes the client reporting bundle from one
// or more incident export files.
//
// Usage:
//
//	escalation-insights [-config client.yaml] [-out bundle.json] export1.csv [export2.csv ...]
//
// Exports are given in chronological order; the last one is the current
// reporting period and the rest feed the trend series.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/report"
	"github.com/bissquit/escalation-insights/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the client configuration YAML")
	outPath := flag.String("out", "", "write the bundle JSON to this file instead of stdout")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("escalation-insights %s (%s, %s)\n", version.Version, version.GitCommit, version.BuildDate)
		return 0
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: escalation-insights [-config file] [-out file] export.csv [export.csv ...]")
		return 2
	}

	cfg, err := config.Load(*configPath, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "escalation-insights: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	svc, err := report.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return 1
	}

	sources := make([]report.Source, 0, flag.NArg())
	for _, path := range flag.Args() {
		label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sources = append(sources, report.Source{Path: path, Label: label})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, err := svc.Run(ctx, sources)
	if err != nil {
		logger.Error("report run failed", "error", err)
		return 1
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("failed to create output file", "path", *outPath, "error", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		logger.Error("failed to encode bundle", "error", err)
		return 1
	}

	return 0
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
