// Package softhold implements short-lived, best-effort claims on seats that
// absorb bursts of interest before the exclusive row lock is attempted.
//
// The coordinator is fail-open: when no store is configured, or the store
// returns an error, every operation reports success. The exclusive row lock
// remains the only arbiter of seat ownership.
package softhold

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/logging"
)

const DefaultTTL = 15 * time.Second

// Store is the ephemeral key-value store backing soft holds.
type Store interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

type Coordinator struct {
	store Store
	ttl   time.Duration
	log   hclog.Logger
}

// NewCoordinator returns a coordinator over store. A nil store disables soft
// holds and every call succeeds.
func NewCoordinator(store Store, ttl time.Duration, logger hclog.Logger) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Coordinator{store: store, ttl: ttl, log: logger.Named("softhold")}
}

func Key(seatID int64) string {
	return "seat:" + strconv.FormatInt(seatID, 10)
}

// TryClaim claims seatID for actorID if nobody holds the claim and reports
// whether the claim was newly created.
func (c *Coordinator) TryClaim(ctx context.Context, seatID int64, actorID string) bool {
	if c.store == nil {
		return true
	}
	ok, err := c.store.SetIfAbsent(ctx, Key(seatID), actorID, c.ttl)
	if err != nil {
		logging.FromContext(ctx, c.log).Error("soft hold store unavailable, allowing claim",
			"seat_id", seatID, "user_id", actorID, "error", err)
		return true
	}
	return ok
}

// IsClaimedBy reports whether actorID currently holds the claim on seatID.
func (c *Coordinator) IsClaimedBy(ctx context.Context, seatID int64, actorID string) bool {
	if c.store == nil {
		return true
	}
	holder, found, err := c.store.Get(ctx, Key(seatID))
	if err != nil {
		logging.FromContext(ctx, c.log).Error("soft hold store unavailable during verification",
			"seat_id", seatID, "user_id", actorID, "error", err)
		return true
	}
	return found && holder == actorID
}

// Release drops the claim on seatID. Failures are logged and ignored.
func (c *Coordinator) Release(ctx context.Context, seatID int64) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, Key(seatID)); err != nil {
		logging.FromContext(ctx, c.log).Warn("failed to remove soft hold", "seat_id", seatID, "error", err)
	}
}
