package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/seatbooking/api"
	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/amqp"
	"github.com/Domenick1991/seatbooking/internal/cache"
	"github.com/Domenick1991/seatbooking/internal/events"
	"github.com/Domenick1991/seatbooking/internal/idempotency"
	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/payment"
	"github.com/Domenick1991/seatbooking/internal/ratelimit"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"github.com/Domenick1991/seatbooking/internal/repository/sqlite"
	"github.com/Domenick1991/seatbooking/internal/service/booking"
	"github.com/Domenick1991/seatbooking/internal/service/hold"
	"github.com/Domenick1991/seatbooking/internal/softhold"
)

const brokerCheckTimeout = 3 * time.Second

// App holds the wired services of one process.
type App struct {
	Config   *config.Config
	Store    repository.Store
	Holds    *hold.HoldService
	Bookings *booking.BookingService

	log     hclog.Logger
	closers []func() error
}

// OpenStore connects to the configured database and applies the schema.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	var store repository.Store
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store = repository.NewPGStore(pool)
	case "sqlite":
		s, err := sqlite.Open(cfg.Database.Path, cfg.Booking.LockTimeout)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// NewPublisher returns the event publisher selected by cfg.Events.Driver and
// a function that releases it. Unreachable Kafka brokers are logged, not
// fatal: events are best-effort.
func NewPublisher(ctx context.Context, cfg *config.Config, logger hclog.Logger) (events.Publisher, func() error, error) {
	switch cfg.Events.Driver {
	case "kafka":
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic, logger)
		checkCtx, cancel := context.WithTimeout(ctx, brokerCheckTimeout)
		defer cancel()
		if err := p.CheckConnection(checkCtx); err != nil {
			logger.Warn("kafka unavailable, events will be dropped until it recovers", "brokers", cfg.Kafka.Brokers, "error", err)
		}
		return p, p.Close, nil
	case "amqp":
		return amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger), func() error { return nil }, nil
	case "none", "":
		return events.Nop{}, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}

// NewApp opens every dependency named in cfg and builds the workflows.
func NewApp(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Store: store, log: logger, closers: []func() error{store.Close}}

	var softStore softhold.Store
	if cfg.Redis.Enabled {
		redisStore := cache.NewRedisStore(cfg.Redis)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, soft holds will fail open", "addr", cfg.Redis.Addr, "error", err)
		}
		softStore = redisStore
		app.closers = append(app.closers, redisStore.Close)
	}

	publisher, closePublisher, err := NewPublisher(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closePublisher)

	admission := ratelimit.NewAdmission(cfg.RateLimit, nil)
	app.Holds = hold.NewHoldService(
		store,
		admission,
		softhold.NewCoordinator(softStore, cfg.Booking.SoftHoldTTL, logger),
		cfg.Booking.HoldTTL,
		cfg.Booking.LockTimeout,
		hold.WithPublisher(publisher),
		hold.WithLogger(logger),
	)
	app.Bookings = booking.NewBookingService(
		store,
		admission,
		idempotency.NewStore(),
		payment.NewSimulator(cfg.Payment, logger),
		cfg.Booking.LockTimeout,
		booking.WithPublisher(publisher),
		booking.WithLogger(logger),
		booking.WithAmount(cfg.Booking.AmountCents),
	)
	return app, nil
}

// Handler returns the HTTP surface over the app's workflows.
func (a *App) Handler() http.Handler {
	return api.NewRouter(a.log, a.Config.Auth.JWTSecret, api.Services{
		Seats:    a.Holds,
		Bookings: a.Bookings,
		Actors:   a.Holds,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
