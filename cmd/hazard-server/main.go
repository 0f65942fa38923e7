package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/hazard-query/internal/app"
	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/core/server"
	"github.com/mohammed-shakir/hazard-query/internal/logger"
	"github.com/mohammed-shakir/hazard-query/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.Load()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}
	if cfg.Build.Version == "dev" {
		cfg.Build.Version = Version
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "hazard-query",
		Component: "server",
		Version:   cfg.Build.Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{}
	if cfg.MetricsEnabled {
		p := metrics.Init(cfg.Build)
		observability.Init(p.Registerer())
		deps.Metrics = p.Handler()
	}

	a, err := app.Build(ctx, cfg, appLog, nil)
	if err != nil {
		appLog.Error("startup failed", "err", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Warn("close feed cache", "err", err)
		}
	}()
	deps.Query = a.Service
	deps.Ready = a.ReadinessDeps()

	appLog.Info("starting hazard-query",
		"addr", cfg.Addr,
		"version", cfg.Build.Version,
		"metrics", cfg.MetricsEnabled)

	if err := server.Run(ctx, cfg, appLog, server.NewRouter(cfg, appLog, deps)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
