package poller

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sg-autoentry/internal/steamgifts"
)

// AgentConfig carries the entry-budget tunables shared by all agents.
type AgentConfig struct {
	// PointsFloor is the minimum balance worth scanning sections for.
	PointsFloor int
	// BurnThreshold is the high-water mark above which surplus points are
	// deliberately spent down.
	BurnThreshold int
	// BurnKeep is the low-water mark the burn phase stops at.
	BurnKeep int
	// BurnBatch bounds how many candidates the burn phase pulls.
	BurnBatch int
	// BurnSection is the listing the burn candidates come from.
	BurnSection string
	// EntryDelay paces successful entries to emulate human cadence.
	// EntryDelayBurnOnly restricts it to the burn phase.
	EntryDelay         time.Duration
	EntryDelayBurnOnly bool
}

// Agent runs the full entry cycle for one account. Tracked points are a
// best-effort local estimate: decremented after each successful entry and
// re-validated only at the next cycle's balance refresh.
type Agent struct {
	accountID string
	token     string
	sections  []string
	session   Session
	ranker    Ranker
	notifier  Notifier
	cfg       AgentConfig

	points int
	log    zerolog.Logger
}

func NewAgent(accountID string, acc AccountConfig, session Session, ranker Ranker, notifier Notifier, cfg AgentConfig) *Agent {
	return &Agent{
		accountID: accountID,
		token:     acc.Token,
		sections:  acc.Sections,
		session:   session,
		ranker:    ranker,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With().Str("account_id", accountID).Logger(),
	}
}

// SetConfig applies rotated credentials and section changes from the store.
func (a *Agent) SetConfig(acc AccountConfig) {
	a.token = acc.Token
	a.sections = acc.Sections
	a.session.SetToken(acc.Token)
}

// Sections returns the account's configured section order.
func (a *Agent) Sections() []string {
	return a.sections
}

// Close releases the agent's session.
func (a *Agent) Close() {
	a.session.Close()
}

// RunCycle performs one full pass: verify the token, refresh the balance,
// scan the configured sections, burn surplus points, report what is left.
// An invalid token is not an error: the user is notified and the account
// sits idle until a later sync delivers a new one.
func (a *Agent) RunCycle(ctx context.Context) error {
	valid, err := a.session.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	if !valid {
		a.log.Warn().Msg("token is invalid, waiting for an update from the user")
		a.notify(ctx, "Your token has expired. Please register a new one.")
		return nil
	}

	if err := a.session.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh balance: %w", err)
	}
	a.points = a.session.Points()
	a.log.Info().Int("points", a.points).Msg("starting cycle")

	for _, section := range a.sections {
		if a.points < a.cfg.PointsFloor {
			a.log.Info().Msg("out of points")
			break
		}
		a.log.Info().Str("section", section).Int("points", a.points).Msg("polling section")
		if err := a.enterSection(ctx, section); err != nil {
			return fmt.Errorf("section %s: %w", section, err)
		}
	}

	if a.points > a.cfg.BurnThreshold {
		a.log.Info().Int("points", a.points).Msg("too many points left, burning")
		if err := a.burnSurplus(ctx); err != nil {
			return fmt.Errorf("burn surplus: %w", err)
		}
	}

	a.notify(ctx, fmt.Sprintf("You have %d points unused.", a.points))
	return nil
}

// enterSection scans one section, entering every affordable giveaway until
// the listing is exhausted or the balance drops below the floor.
func (a *Agent) enterSection(ctx context.Context, section string) error {
	listing := a.session.List(section)
	for {
		g, err := listing.Next(ctx)
		if err != nil {
			return err
		}
		if g == nil {
			return nil
		}

		if g.Cost > a.points {
			a.log.Info().Str("name", g.Name).Int("cost", g.Cost).Msg("too expensive for now")
			continue
		}

		a.enterOne(ctx, *g, false)

		if a.points < a.cfg.PointsFloor {
			a.log.Info().Msg("out of points")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// burnSurplus pulls a bounded candidate batch from the burn section, ranks
// it by popularity and enters top-down until the balance falls back to the
// low-water mark.
func (a *Agent) burnSurplus(ctx context.Context) error {
	listing := a.session.List(a.cfg.BurnSection)
	var batch []steamgifts.Giveaway
	for len(batch) < a.cfg.BurnBatch {
		g, err := listing.Next(ctx)
		if err != nil {
			return err
		}
		if g == nil {
			break
		}
		batch = append(batch, *g)
	}

	appIDs := make([]string, 0, len(batch))
	for _, g := range batch {
		appIDs = append(appIDs, g.SteamID)
	}
	scores := a.ranker.Rank(ctx, appIDs)

	// Stable sort keeps the original listing order on ties.
	sort.SliceStable(batch, func(i, j int) bool {
		return scores[batch[i].SteamID] > scores[batch[j].SteamID]
	})

	for _, g := range batch {
		if g.Cost > a.points {
			a.log.Info().Str("name", g.Name).Int("cost", g.Cost).Msg("too expensive for now")
			continue
		}

		a.enterOne(ctx, g, true)

		if a.points <= a.cfg.BurnKeep {
			a.log.Info().Int("points", a.points).Msg("burned enough points")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// enterOne attempts a single entry. Failures only affect this giveaway: a
// rejection or a bad response is logged and the scan moves on.
func (a *Agent) enterOne(ctx context.Context, g steamgifts.Giveaway, burn bool) {
	entered, err := a.session.Enter(ctx, g)
	if err != nil {
		a.log.Error().Err(err).Str("code", g.Code).Msg("entry attempt failed")
		return
	}
	if !entered {
		a.log.Debug().Str("name", g.Name).Msg("could not enter")
		return
	}

	a.points -= g.Cost
	a.log.Info().Str("name", g.Name).Int("points", a.points).Msg("entered giveaway")
	a.notify(ctx, fmt.Sprintf("Entered giveaway: %s", g.Name))

	if a.cfg.EntryDelay > 0 && (burn || !a.cfg.EntryDelayBurnOnly) {
		_ = sleepCtx(ctx, a.cfg.EntryDelay)
	}
}

func (a *Agent) notify(ctx context.Context, message string) {
	if err := a.notifier.Notify(ctx, a.accountID, message); err != nil {
		a.log.Warn().Err(err).Msg("notification failed")
	}
}
