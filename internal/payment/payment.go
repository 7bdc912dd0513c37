// Package payment defines the payment collaborator used by the confirmation
// workflow and a simulated gateway for local runs.
package payment

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

var ErrDeclined = errors.New("payment gateway error or insufficient funds")

// Gateway charges an actor. It is invoked synchronously and at most once per
// successful confirmation.
type Gateway interface {
	Charge(ctx context.Context, actorID string, amountCents int64, idempotencyKey string) error
}

// Simulator draws one number per charge: draws below DelayRate are delayed,
// draws below DelayRate+FailureRate are declined. Delayed charges therefore
// always fail, as in the gateway this stands in for.
type Simulator struct {
	cfg  config.PaymentConfig
	roll func() float64
	log  hclog.Logger
}

type SimulatorOption func(*Simulator)

// WithRoll replaces the random source.
func WithRoll(roll func() float64) SimulatorOption {
	return func(s *Simulator) {
		s.roll = roll
	}
}

func NewSimulator(cfg config.PaymentConfig, logger hclog.Logger, opts ...SimulatorOption) *Simulator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Simulator{cfg: cfg, roll: rand.Float64, log: logger.Named("payment")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Charge(ctx context.Context, actorID string, amountCents int64, idempotencyKey string) error {
	log := logging.FromContext(ctx, s.log)
	log.Info("starting payment", "user_id", actorID, "amount", amountCents, "idempotency_key", idempotencyKey)

	outcome := s.roll()
	if outcome < s.cfg.DelayRate && s.cfg.Delay > 0 {
		log.Info("simulating payment delay", "idempotency_key", idempotencyKey, "delay", s.cfg.Delay)
		timer := time.NewTimer(s.cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if outcome < s.cfg.DelayRate+s.cfg.FailureRate {
		log.Warn("payment failed", "user_id", actorID, "idempotency_key", idempotencyKey)
		return ErrDeclined
	}

	log.Info("payment succeeded", "user_id", actorID, "idempotency_key", idempotencyKey)
	return nil
}

// Approve is a Gateway that always succeeds.
type Approve struct{}

func (Approve) Charge(context.Context, string, int64, string) error { return nil }

var _ Gateway = (*Simulator)(nil)
var _ Gateway = Approve{}
