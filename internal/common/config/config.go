package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken string `env:"BOT_TOKEN,required"`
	}

	SteamGifts struct {
		BaseURL       string        `env:"SG_BASE_URL" envDefault:"https://www.steamgifts.com/"`
		Throttle      time.Duration `env:"SG_THROTTLE" envDefault:"10s"`
		RetryAttempts uint          `env:"SG_RETRY_ATTEMPTS" envDefault:"5"`
		RetryDelay    time.Duration `env:"SG_RETRY_DELAY" envDefault:"10s"`
		RetryJitter   time.Duration `env:"SG_RETRY_JITTER" envDefault:"20s"`
	}

	SteamSpy struct {
		BaseURL string        `env:"STEAMSPY_BASE_URL" envDefault:"https://steamspy.com/api.php"`
		Pause   time.Duration `env:"STEAMSPY_PAUSE" envDefault:"1s"`
	}

	Poller struct {
		CycleInterval      time.Duration `env:"POLL_CYCLE_INTERVAL" envDefault:"4h"`
		AccountDelay       time.Duration `env:"POLL_ACCOUNT_DELAY" envDefault:"30m"`
		PointsFloor        int           `env:"POLL_POINTS_FLOOR" envDefault:"10"`
		BurnThreshold      int           `env:"POLL_BURN_THRESHOLD" envDefault:"350"`
		BurnKeep           int           `env:"POLL_BURN_KEEP" envDefault:"280"`
		BurnBatch          int           `env:"POLL_BURN_BATCH" envDefault:"100"`
		BurnSection        string        `env:"POLL_BURN_SECTION" envDefault:"All"`
		EntryDelay         time.Duration `env:"SG_ENTRY_DELAY" envDefault:"20s"`
		EntryDelayBurnOnly bool          `env:"SG_ENTRY_DELAY_BURN_ONLY" envDefault:"false"`
	}
}

func Load() (*Config, error) {
	// Ignore a missing .env file, production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
