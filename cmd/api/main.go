package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	if err := application.Run(ctx); err != nil {
		logger.Error("App: stopped with error", err)
		return err
	}
	logger.Info("App: stopped")
	return nil
}
