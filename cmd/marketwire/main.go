package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"MarketWire/internal/app"
	"MarketWire/internal/config"
	"MarketWire/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single pipeline batch and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		err = application.RunOnce(ctx)
	} else {
		err = application.Run(ctx)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
