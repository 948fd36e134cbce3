package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homeloan/internal/platform/config"
	"homeloan/internal/platform/logger"
)

// main loads configuration and hands the process lifecycle to run. Business
// logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
