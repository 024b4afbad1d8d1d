package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/unclebandit/dripcampaign-backend/internal/config"
	"github.com/unclebandit/dripcampaign-backend/internal/db"
	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/logging"
	"github.com/unclebandit/dripcampaign-backend/internal/queue"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
	"github.com/unclebandit/dripcampaign-backend/internal/service"
)

// The worker consumes lead-enrollment events and runs the immediate
// dispatch for step 0, so a freshly enrolled lead doesn't wait for the
// next sweep tick.
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

	campaignRepo := &repository.CampaignRepository{DB: conn}
	leadRepo := &repository.LeadRepository{DB: conn}
	recordRepo := &repository.DispatchRecordRepository{DB: conn}

	var gw gateway.Gateway
	if cfg.GatewayURL != "" {
		gw = gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout, cfg.GatewayRatePerSec)
	} else {
		log.Warn().Msg("GATEWAY_URL not set, using mock gateway")
		gw = gateway.NewMock()
	}

	enrollment := &service.Enrollment{
		Campaigns: campaignRepo,
		Leads:     leadRepo,
		Dispatcher: &service.Dispatcher{
			Gateway: gw,
			Timeout: cfg.GatewayTimeout,
		},
		Recorder:   &service.Recorder{Records: recordRepo, Log: log.With().Str("component", "recorder").Logger()},
		BatchSize:  cfg.EnrollBatchSize,
		BatchDelay: cfg.EnrollBatchDelay,
		Log:        log.With().Str("component", "enrollment").Logger(),
	}

	amqpQueue, err := queue.DialAMQP(cfg.AMQPURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to AMQP")
	}
	defer amqpQueue.Close()

	ctx := context.Background()
	err = amqpQueue.Subscribe(queue.TopicLeadEnrollments, func(body []byte) error {
		return enrollment.HandleEvent(ctx, body)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe")
	}

	log.Info().Msg("worker running, waiting for enrollment events")
	select {}
}
