package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"sg-autoentry/internal/common/config"
	"sg-autoentry/internal/common/logger"
	"sg-autoentry/internal/platform/telegram"
	"sg-autoentry/internal/poller"
	"sg-autoentry/internal/rating"
	"sg-autoentry/internal/steamgifts"
	"sg-autoentry/internal/storage/redisstore"

	redisplatform "sg-autoentry/internal/platform/redis"
)

func main() {
	// Create cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config load: %v", err)
	}

	logger.Init("sg-autoentry", cfg.Debug)

	rdb, err := redisplatform.Open(ctx, fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis open")
	}
	defer rdb.Close()

	store := redisstore.New(rdb.Client)
	notifier := telegram.NewClient(cfg.Telegram.BotToken)
	ranker := rating.NewRanker(rating.NewClient(cfg.SteamSpy.BaseURL, cfg.SteamSpy.Pause))

	sessionCfg := steamgifts.Config{
		BaseURL:  cfg.SteamGifts.BaseURL,
		Throttle: cfg.SteamGifts.Throttle,
		Retry: steamgifts.RetryPolicy{
			Attempts: cfg.SteamGifts.RetryAttempts,
			Delay:    cfg.SteamGifts.RetryDelay,
			Jitter:   cfg.SteamGifts.RetryJitter,
		},
	}
	sessions := func(accountID, token string) poller.Session {
		return sgSession{steamgifts.NewSession(accountID, token, sessionCfg)}
	}

	agentCfg := poller.AgentConfig{
		PointsFloor:        cfg.Poller.PointsFloor,
		BurnThreshold:      cfg.Poller.BurnThreshold,
		BurnKeep:           cfg.Poller.BurnKeep,
		BurnBatch:          cfg.Poller.BurnBatch,
		BurnSection:        cfg.Poller.BurnSection,
		EntryDelay:         cfg.Poller.EntryDelay,
		EntryDelayBurnOnly: cfg.Poller.EntryDelayBurnOnly,
	}

	sync := poller.NewSynchronizer(store, sessions, ranker, notifier, agentCfg)
	scheduler := poller.NewScheduler(sync, cfg.Poller.CycleInterval, cfg.Poller.AccountDelay)

	log.Info().Msg("starting giveaway polling loop")
	if err := scheduler.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("polling loop failed")
	}
	log.Info().Msg("poller stopped")
}

// sgSession adapts the concrete session to the poller's Session interface;
// only the List return type needs widening.
type sgSession struct {
	*steamgifts.Session
}

func (s sgSession) List(section string) poller.Listing {
	return s.Session.List(section)
}
