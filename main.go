package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/voxgate/voxgate/config"
	"github.com/voxgate/voxgate/pkg/otel"
	"github.com/voxgate/voxgate/server"
)

var version string

func main() {
	configFlag := flag.String("config", "config.yaml", "configuration file")

	flag.Parse()

	ctx := context.Background()

	if err := otel.Setup(ctx, "voxgate", version); err != nil {
		slog.Error("unable to setup telemetry", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		slog.Error("unable to parse config", "error", err)
		os.Exit(1)
	}

	s, err := server.New(cfg)

	if err != nil {
		slog.Error("unable to create server", "error", err)
		os.Exit(1)
	}

	slog.Info("server starting", "address", cfg.Address)

	if err := s.ListenAndServe(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
