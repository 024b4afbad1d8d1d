package main

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/unclebandit/dripcampaign-backend/internal/config"
	"github.com/unclebandit/dripcampaign-backend/internal/db"
	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/lock"
	"github.com/unclebandit/dripcampaign-backend/internal/logging"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
	"github.com/unclebandit/dripcampaign-backend/internal/service"
)

// The sweeper binary owns the cadence the scheduler subsystem itself does
// not: it fires ProcessActiveCampaigns on a cron schedule, under a redis
// lock so overlapping ticks never run two sweeps at once.
func main() {
	// Optional .env; OS environment wins when the file is absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogJSON)

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	var gw gateway.Gateway
	if cfg.GatewayURL != "" {
		gw = gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout, cfg.GatewayRatePerSec)
	} else {
		log.Warn().Msg("GATEWAY_URL not set, using mock gateway")
		gw = gateway.NewMock()
	}

	sweeper := &service.Sweeper{
		Campaigns: &repository.CampaignRepository{DB: conn},
		Leads:     &repository.LeadRepository{DB: conn},
		Dispatcher: &service.Dispatcher{
			Gateway: gw,
			Timeout: cfg.GatewayTimeout,
		},
		Recorder: &service.Recorder{
			Records: &repository.DispatchRecordRepository{DB: conn},
			Log:     log.With().Str("component", "recorder").Logger(),
		},
		Log: log.With().Str("component", "sweeper").Logger(),
	}

	sweepLock := lock.New(rdb, "sweep:lock", cfg.SweepLockTTL)

	c := cron.New()
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		ctx := context.Background()

		acquired, err := sweepLock.Acquire(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sweep lock error")
			return
		}
		if !acquired {
			log.Info().Msg("previous sweep still running, skipping tick")
			return
		}
		defer func() {
			if err := sweepLock.Release(ctx); err != nil {
				log.Error().Err(err).Msg("failed to release sweep lock")
			}
		}()

		if _, err := sweeper.ProcessActiveCampaigns(ctx); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("invalid sweep schedule")
	}

	log.Info().Str("schedule", cfg.SweepSchedule).Msg("sweeper running")
	c.Run()
}
