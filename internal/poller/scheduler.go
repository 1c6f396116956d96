package poller

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Scheduler owns the agent roster and drives the outer loop: sync the
// roster, run every agent sequentially with an inter-account delay, sleep
// the cycle interval, repeat. Accounts are deliberately processed one at a
// time; concurrent fan-out would produce correlated request bursts that
// look automated.
type Scheduler struct {
	sync         *Synchronizer
	cycle        time.Duration
	accountDelay time.Duration
	agents       map[string]*Agent
}

func NewScheduler(sync *Synchronizer, cycle, accountDelay time.Duration) *Scheduler {
	return &Scheduler{
		sync:         sync,
		cycle:        cycle,
		accountDelay: accountDelay,
		agents:       make(map[string]*Agent),
	}
}

// Run loops until ctx is cancelled. Every live session is closed before
// returning, on all exit paths.
func (s *Scheduler) Run(ctx context.Context) error {
	defer func() {
		log.Info().Msg("closing account sessions")
		for _, agent := range s.agents {
			agent.Close()
		}
		log.Info().Msg("account sessions closed")
	}()

	for {
		cycleLog := log.With().Str("cycle_id", uuid.NewString()).Logger()

		agents, err := s.sync.Sync(ctx, s.agents)
		s.agents = agents
		if err != nil {
			cycleLog.Error().Err(err).Msg("roster sync failed")
		}

		for _, id := range sortedIDs(s.agents) {
			agent, ok := s.agents[id]
			if !ok {
				continue
			}
			cycleLog.Info().Str("account_id", id).Strs("sections", agent.Sections()).Msg("polling account")
			if err := agent.RunCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				cycleLog.Error().Err(err).Str("account_id", id).Msg("account cycle failed")
			}
			if err := sleepCtx(ctx, s.accountDelay); err != nil {
				return nil
			}
		}

		if err := sleepCtx(ctx, s.cycle); err != nil {
			return nil
		}
	}
}

func sortedIDs(agents map[string]*Agent) []string {
	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
