package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// CampaignResult summarizes one campaign's share of a sweep.
type CampaignResult struct {
	CampaignID int      `json:"campaign_id"`
	Processed  int      `json:"processed"`
	Sent       int      `json:"sent"`
	Completed  bool     `json:"completed"`
	Errors     []string `json:"errors,omitempty"`
}

// SweepSummary aggregates a full pass over the active campaigns. Sweep
// internals never surface per-lead errors to a caller; they land here as
// operational telemetry.
type SweepSummary struct {
	Campaigns int              `json:"campaigns"`
	Processed int              `json:"processed"`
	Sent      int              `json:"sent"`
	Errors    []string         `json:"errors,omitempty"`
	Results   []CampaignResult `json:"results"`
}

// Sweeper drives the periodic pass: eligibility → dispatch → record →
// state update → completion check, for every active campaign. The cadence
// itself belongs to whoever calls ProcessActiveCampaigns (cron binary or
// the manual endpoint).
type Sweeper struct {
	Campaigns  repository.CampaignRepositoryInterface
	Leads      repository.LeadRepositoryInterface
	Dispatcher *Dispatcher
	Recorder   *Recorder
	Now        func() time.Time
	Log        zerolog.Logger
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sweeper) processor() *leadProcessor {
	return &leadProcessor{
		leads:      s.Leads,
		dispatcher: s.Dispatcher,
		recorder:   s.Recorder,
		log:        s.Log,
	}
}

// ProcessActiveCampaigns runs one sweep. A campaign that blows up is folded
// into the summary and never aborts the others.
func (s *Sweeper) ProcessActiveCampaigns(ctx context.Context) (*SweepSummary, error) {
	campaigns, err := s.Campaigns.ListActive()
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{Campaigns: len(campaigns), Results: []CampaignResult{}}
	for _, c := range campaigns {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, err := s.ProcessCampaign(ctx, c.ID)
		if err != nil {
			s.Log.Error().Int("campaign_id", c.ID).Err(err).Msg("campaign sweep failed")
			summary.Errors = append(summary.Errors, fmt.Sprintf("campaign %d: %v", c.ID, err))
			continue
		}
		summary.Processed += res.Processed
		summary.Sent += res.Sent
		summary.Results = append(summary.Results, *res)
	}

	s.Log.Info().
		Int("campaigns", summary.Campaigns).
		Int("processed", summary.Processed).
		Int("sent", summary.Sent).
		Int("errors", len(summary.Errors)).
		Msg("sweep finished")
	return summary, nil
}

// ProcessCampaign sweeps a single campaign. Per-lead failures are captured
// in the result; only campaign-level problems (missing, paused, completed,
// storage errors) come back as an error.
func (s *Sweeper) ProcessCampaign(ctx context.Context, campaignID int) (*CampaignResult, error) {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	switch campaign.Status {
	case model.CampaignStatusPaused, model.CampaignStatusCompleted:
		return nil, appErrors.NewDomainState("campaign", campaignID, campaign.Status, "campaign is not processable")
	case model.CampaignStatusDraft:
		// First successful pass promotes a draft.
		if err := s.Campaigns.UpdateStatus(campaignID, model.CampaignStatusActive); err != nil {
			return nil, err
		}
		campaign.Status = model.CampaignStatusActive
	}

	steps, err := s.Campaigns.Steps(campaignID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.Leads.Candidates(campaignID)
	if err != nil {
		return nil, err
	}

	ready := ReadyLeads(steps, candidates, s.now())
	res := &CampaignResult{CampaignID: campaignID, Errors: []string{}}
	proc := s.processor()

	for i := range ready {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		lead := ready[i]
		res.Processed++
		sent, err := proc.processLead(ctx, &lead, steps)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("lead %d: %v", lead.ID, err))
			continue
		}
		if sent {
			res.Sent++
		}
	}

	completed, err := s.finishCampaign(campaignID, len(steps))
	if err != nil {
		return res, err
	}
	res.Completed = completed
	return res, nil
}

// finishCampaign closes out exhausted leads and marks the campaign
// completed once no active or contacted leads remain.
func (s *Sweeper) finishCampaign(campaignID, stepCount int) (bool, error) {
	if _, err := s.Leads.CompleteExhausted(campaignID, stepCount); err != nil {
		return false, err
	}

	remaining, err := s.Leads.CountRemaining(campaignID)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	if err := s.Campaigns.UpdateStatus(campaignID, model.CampaignStatusCompleted); err != nil {
		return false, err
	}
	s.Log.Info().Int("campaign_id", campaignID).Msg("campaign completed")
	return true, nil
}
