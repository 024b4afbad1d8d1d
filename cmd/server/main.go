package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/dripcampaign-backend/internal/config"
	"github.com/unclebandit/dripcampaign-backend/internal/controller"
	"github.com/unclebandit/dripcampaign-backend/internal/db"
	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/handler"
	"github.com/unclebandit/dripcampaign-backend/internal/logging"
	"github.com/unclebandit/dripcampaign-backend/internal/queue"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
	"github.com/unclebandit/dripcampaign-backend/internal/service"
)

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

	dispatcher := &service.Dispatcher{Gateway: gw, Timeout: cfg.GatewayTimeout}
	recorder := &service.Recorder{Records: recordRepo, Log: log.With().Str("component", "recorder").Logger()}

	sweeper := &service.Sweeper{
		Campaigns:  campaignRepo,
		Leads:      leadRepo,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		Log:        log.With().Str("component", "sweeper").Logger(),
	}

	enrollment := &service.Enrollment{
		Campaigns:  campaignRepo,
		Leads:      leadRepo,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		BatchSize:  cfg.EnrollBatchSize,
		BatchDelay: cfg.EnrollBatchDelay,
		Log:        log.With().Str("component", "enrollment").Logger(),
	}

	var q queue.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		// Local mode: run the enrollment consumer in-process.
		log.Warn().Msg("AMQP_URL not set, using in-memory queue")
		mem := queue.NewInMemoryQueue(log)
		mem.Subscribe(queue.TopicLeadEnrollments, func(body []byte) error {
			return enrollment.HandleEvent(context.Background(), body)
		})
		q = mem
	}

	campaignService := &service.CampaignService{
		Campaigns: campaignRepo,
		Leads:     leadRepo,
		Records:   recordRepo,
		Queue:     q,
		Log:       log.With().Str("component", "campaigns").Logger(),
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Sweeper:         sweeper,
	}
	leadHandler := &handler.LeadHandler{Service: campaignService}

	r := chi.NewRouter()
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Post("/campaigns/{id}/steps", campaignController.AddSteps)
	r.Post("/campaigns/{id}/activate", campaignController.Activate)
	r.Post("/campaigns/{id}/pause", campaignController.Pause)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Post("/campaigns/{id}/leads", leadHandler.EnrollLeads)
	r.Get("/campaigns/{id}/leads", leadHandler.ListLeads)
	r.Get("/leads/{id}/history", leadHandler.LeadHistory)
	r.Post("/leads/{id}/do-not-contact", leadHandler.DoNotContact)
	r.Post("/sweeps", campaignController.RunSweep)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
