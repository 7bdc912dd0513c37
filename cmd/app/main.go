package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logging.New("seatbooking", config.LogConfig{Level: "info"}).Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New("seatbooking", cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("start application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := bootstrap.Run(ctx, cfg.HTTP, app.Handler(), logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
