package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsCyclesAndClosesSessionsOnShutdown(t *testing.T) {
	f := newRosterFixture(map[string]AccountConfig{
		"u1": {Token: "T1", Sections: []string{"Wishlist"}},
	})
	scheduler := NewScheduler(f.sync, 5*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, scheduler.Run(ctx))

	require.Contains(t, f.sessions, "u1")
	assert.True(t, f.sessions["u1"].closed, "shutdown must release every live session")
	assert.True(t, f.sessions["u1"].refreshed, "at least one full cycle must have run")

	// The pickup notification is sent exactly once even though several
	// cycles ran.
	var pickups int
	for _, m := range f.notifier.messages["u1"] {
		if m == "Your account is now being serviced." {
			pickups++
		}
	}
	assert.Equal(t, 1, pickups)
}

func TestSchedulerStopsMidCycle(t *testing.T) {
	f := newRosterFixture(map[string]AccountConfig{
		"u1": {Token: "T1"},
		"u2": {Token: "T2"},
	})
	// Long inter-account delay: cancellation lands inside the first
	// cycle, sessions must still be closed.
	scheduler := NewScheduler(f.sync, time.Hour, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, scheduler.Run(ctx))
	for id, s := range f.sessions {
		assert.True(t, s.closed, "session %s must be closed", id)
	}
}
