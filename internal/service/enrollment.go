package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/queue"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// EnrollmentResult summarizes an immediate-enrollment batch run.
type EnrollmentResult struct {
	Dispatched int      `json:"dispatched"`
	Errors     []string `json:"errors,omitempty"`
}

// Enrollment is the fast path for leads added to an already-active
// campaign: step 0 goes out right away instead of waiting for the next
// sweep tick.
type Enrollment struct {
	Campaigns  repository.CampaignRepositoryInterface
	Leads      repository.LeadRepositoryInterface
	Dispatcher *Dispatcher
	Recorder   *Recorder
	BatchSize  int
	BatchDelay time.Duration
	Log        zerolog.Logger
}

func (e *Enrollment) processor() *leadProcessor {
	return &leadProcessor{
		leads:      e.Leads,
		dispatcher: e.Dispatcher,
		recorder:   e.Recorder,
		log:        e.Log,
	}
}

// OnLeadAdded dispatches step 0 for one freshly enrolled lead. Campaigns
// that are not active, or have no steps, fall back to the regular sweep.
func (e *Enrollment) OnLeadAdded(ctx context.Context, lead *model.Lead, campaign *model.Campaign) error {
	if !campaign.IsActive || campaign.Status != model.CampaignStatusActive {
		return nil
	}
	steps, err := e.Campaigns.Steps(campaign.ID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}
	_, err = e.processor().processLead(ctx, lead, steps)
	return err
}

// OnLeadsAdded is the bulk variant: bounded batches with a pacing delay
// between them so the gateway's rate limits are respected. One lead's
// failure never blocks the rest of its batch or later batches.
func (e *Enrollment) OnLeadsAdded(ctx context.Context, leads []*model.Lead, campaign *model.Campaign) (*EnrollmentResult, error) {
	result := &EnrollmentResult{Errors: []string{}}
	if !campaign.IsActive || campaign.Status != model.CampaignStatusActive {
		return result, nil
	}
	steps, err := e.Campaigns.Steps(campaign.ID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return result, nil
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	delay := e.BatchDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	proc := e.processor()
	for start := 0; start < len(leads); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}

		end := start + batchSize
		if end > len(leads) {
			end = len(leads)
		}

		for _, lead := range leads[start:end] {
			sent, err := proc.processLead(ctx, lead, steps)
			if err != nil {
				e.Log.Warn().Int("lead_id", lead.ID).Err(err).Msg("immediate enrollment dispatch failed")
				result.Errors = append(result.Errors, fmt.Sprintf("lead %d: %v", lead.ID, err))
				continue
			}
			if sent {
				result.Dispatched++
			}
		}
	}

	e.Log.Info().
		Int("campaign_id", campaign.ID).
		Int("leads", len(leads)).
		Int("dispatched", result.Dispatched).
		Int("errors", len(result.Errors)).
		Msg("immediate enrollment finished")
	return result, nil
}

// HandleEvent consumes a LeadEnrolledEvent off the queue and runs the bulk
// trigger for the leads that still exist.
func (e *Enrollment) HandleEvent(ctx context.Context, body []byte) error {
	var ev queue.LeadEnrolledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		e.Log.Error().Err(err).Msg("invalid enrollment event payload")
		return nil // malformed events are dropped, not retried
	}

	campaign, err := e.Campaigns.GetByID(ev.CampaignID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			e.Log.Warn().Int("campaign_id", ev.CampaignID).Msg("enrollment event for missing campaign")
			return nil
		}
		return err
	}

	leads := make([]*model.Lead, 0, len(ev.LeadIDs))
	for _, id := range ev.LeadIDs {
		lead, err := e.Leads.GetByID(id)
		if err != nil {
			if appErrors.IsNotFound(err) {
				continue
			}
			return err
		}
		leads = append(leads, lead)
	}

	_, err = e.OnLeadsAdded(ctx, leads, campaign)
	return err
}
