// Package poller drives the giveaway-entry cycle for every registered
// account: it reconciles the roster against the configuration store, then
// runs each account's agent in sequence.
package poller

import (
	"context"
	"time"

	"sg-autoentry/internal/steamgifts"
)

// AccountConfig is one configured account as read from the store.
type AccountConfig struct {
	Token    string   `json:"token"`
	Sections []string `json:"sections"`
}

// ConfigStore is the external configuration store, written by the chat bot
// and read here once per cycle.
type ConfigStore interface {
	Accounts(ctx context.Context) (map[string]AccountConfig, error)
}

// Notifier delivers user-facing messages. Calls are fire-and-forget:
// failures are logged by the caller and never abort a cycle.
type Notifier interface {
	Notify(ctx context.Context, accountID, message string) error
}

// Ranker scores candidate titles for the surplus-burn phase.
type Ranker interface {
	Rank(ctx context.Context, appIDs []string) map[string]float64
}

// Listing is a lazy, finite sequence of giveaways; Next returns nil when
// the sequence is exhausted.
type Listing interface {
	Next(ctx context.Context) (*steamgifts.Giveaway, error)
}

// Session is the per-account site interface consumed by the agent.
type Session interface {
	Verify(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Points() int
	List(section string) Listing
	Enter(ctx context.Context, g steamgifts.Giveaway) (bool, error)
	SetToken(token string)
	Close()
}

// SessionFactory opens a session for a newly configured account.
type SessionFactory func(accountID, token string) Session

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
