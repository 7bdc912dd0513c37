package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/amqp"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/email"
	"github.com/Domenick1991/seatbooking/internal/events"
	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logging.New("worker", config.LogConfig{Level: "info"}).Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New("worker", cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("start worker", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	sender := email.NewSender(logger)
	go consumeNotifications(ctx, cfg, sender.Send, logger)

	sweepTicker := time.NewTicker(cfg.Worker.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			released, err := app.Holds.ReleaseExpiredHolds(ctx, cfg.Worker.SweepBatch)
			if err != nil {
				logger.Error("release expired holds", "error", err)
				continue
			}
			if len(released) > 0 {
				logger.Info("released expired holds", "count", len(released))
			}
		case <-ctx.Done():
			logger.Info("shutting down worker")
			return
		}
	}
}

func consumeNotifications(ctx context.Context, cfg *config.Config, handler func(context.Context, events.SeatEvent) error, logger hclog.Logger) {
	var err error
	switch cfg.Events.Driver {
	case "kafka":
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
		defer consumer.Close()
		err = consumer.Consume(ctx, handler)
	case "amqp":
		err = amqp.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, logger).Consume(ctx, handler)
	default:
		logger.Info("no event transport configured, notifications disabled")
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
	}
}
