package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/incidentauth/internal/config"
	"github.com/dropDatabas3/incidentauth/internal/http/server"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"

	// adapters de store (registro vía init)
	_ "github.com/dropDatabas3/incidentauth/internal/store/memory"
	_ "github.com/dropDatabas3/incidentauth/internal/store/pg"
)

var version = "dev"

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "path al config.yaml (opcional)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "incidentauth",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	app, err := server.Build(ctx, cfg, server.Options{Version: version})
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	if err := server.Run(ctx, cfg.Server.Addr, app.Handler); err != nil {
		lg.Error("server failed", logger.Err(err))
		return
	}
	lg.Info("bye")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
