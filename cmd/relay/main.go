package main

import (
	"context"
	"flag"
	"log"

	"github.com/lewisedginton/support_relay/internal/config"
	"github.com/lewisedginton/support_relay/internal/server"
	"github.com/lewisedginton/support_relay/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
	cfg.LogConfig(appLogger)

	srv, err := server.New(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize server", logger.ErrorField(err))
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
