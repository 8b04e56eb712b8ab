package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/podium-bot/app"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
	"github.com/Black-And-White-Club/podium-bot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	obs := observability.Init(config.ToObsConfig(cfg))
	logger := obs.Provider.Logger
	logger.Info("Starting podium-bot", slog.String("http_addr", cfg.HTTP.Addr))

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, obs); err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		_ = application.Close()
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	cancel()
	if runErr != nil {
		logger.Error("Application stopped with error", slog.String("error", runErr.Error()))
	}

	if err := application.Close(); err != nil {
		logger.Error("Error during shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
