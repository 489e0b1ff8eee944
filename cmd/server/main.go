package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Server host")
	flag.StringVar(&cfg.Registry.ManifestPath, "manifest", cfg.Registry.ManifestPath, "Service manifest (.yaml, .toml or .json)")
	flag.StringVar(&cfg.Registry.HashAlgorithm, "hash", cfg.Registry.HashAlgorithm, "Record id hash: md5, sha256 or blake2b")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	if cfg.Logging.Development && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logging.NewDefault().Fatal("Failed to create server", zap.Error(err))
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logging.NewDefault().Error("Server error", zap.Error(err))
		srv.Close()
		os.Exit(1)
	}
}
