package poller

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Synchronizer reconciles the live agent roster against the configuration
// store. The roster map is owned by the scheduler and passed through each
// call; the synchronizer holds no roster state of its own.
type Synchronizer struct {
	store    ConfigStore
	sessions SessionFactory
	ranker   Ranker
	notifier Notifier
	agentCfg AgentConfig
}

func NewSynchronizer(store ConfigStore, sessions SessionFactory, ranker Ranker, notifier Notifier, agentCfg AgentConfig) *Synchronizer {
	return &Synchronizer{
		store:    store,
		sessions: sessions,
		ranker:   ranker,
		notifier: notifier,
		agentCfg: agentCfg,
	}
}

// Sync applies one reconciliation pass: cleanup, then update, then add.
// Cleanup runs first so an id that disappears and reappears within one pass
// is rebuilt fresh rather than kept stale. On a store read failure the
// roster is returned unchanged.
func (s *Synchronizer) Sync(ctx context.Context, agents map[string]*Agent) (map[string]*Agent, error) {
	configured, err := s.store.Accounts(ctx)
	if err != nil {
		return agents, err
	}

	for id, agent := range agents {
		if _, ok := configured[id]; !ok {
			agent.Close()
			delete(agents, id)
			log.Info().Str("account_id", id).Msg("account removed from store, dropping from poll")
		}
	}

	for id, acc := range configured {
		if agent, ok := agents[id]; ok {
			agent.SetConfig(acc)
		}
	}

	for id, acc := range configured {
		if _, ok := agents[id]; ok {
			continue
		}
		agents[id] = NewAgent(id, acc, s.sessions(id, acc.Token), s.ranker, s.notifier, s.agentCfg)
		log.Info().Str("account_id", id).Msg("added account to poll")
		if err := s.notifier.Notify(ctx, id, "Your account is now being serviced."); err != nil {
			log.Warn().Err(err).Str("account_id", id).Msg("notification failed")
		}
	}

	return agents, nil
}
