package service

import (
	"context"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// leadProcessor runs the claim → dispatch → record → mutate pipeline for a
// single lead, in that order. Shared by the sweeper and the
// immediate-enrollment trigger so the ordering and lease rules live in one
// place.
type leadProcessor struct {
	leads      repository.LeadRepositoryInterface
	dispatcher *Dispatcher
	recorder   *Recorder
	log        zerolog.Logger
}

// processLead dispatches the lead's next step. Returns whether a message
// was sent. The lead struct is updated in place on success so callers can
// report fresh state.
func (p *leadProcessor) processLead(ctx context.Context, lead *model.Lead, steps []model.CampaignStep) (bool, error) {
	if !lead.Dispatchable() {
		return false, appErrors.NewDomainState("lead", lead.ID, lead.Status, "lead cannot receive steps")
	}

	next := lead.ContactAttempts
	if next >= len(steps) {
		// Sequence exhausted: nothing to send, just close the lead out.
		if err := p.leads.MarkCompleted(lead.ID); err != nil {
			return false, err
		}
		lead.Status = model.LeadStatusCompleted
		return false, nil
	}
	step := steps[next]

	claimed, err := p.leads.ClaimStep(lead.ID, next)
	if err != nil {
		return false, err
	}
	if !claimed {
		// Another worker advanced this lead between read and claim.
		p.log.Debug().Int("lead_id", lead.ID).Int("step_index", next).Msg("lead already claimed, skipping")
		return false, nil
	}

	outcome, sendErr := p.dispatcher.SendStep(ctx, lead, &step)

	// The audit row is written for both outcomes; a persistence failure is
	// non-fatal because the send already happened.
	if recErr := p.recorder.Record(lead, &step, outcome, sendErr); recErr != nil {
		p.log.Warn().Int("lead_id", lead.ID).Err(recErr).Msg("dispatch record write failed")
	}

	if sendErr != nil {
		// The claim advanced contact_attempts; a failed send must not.
		if relErr := p.leads.ReleaseStep(lead.ID, next+1); relErr != nil {
			p.log.Error().Int("lead_id", lead.ID).Err(relErr).Msg("failed to release step claim")
		}
		if appErrors.IsPermanent(sendErr) {
			if deErr := p.leads.Deactivate(lead.ID, sendErr.Error()); deErr != nil {
				p.log.Error().Int("lead_id", lead.ID).Err(deErr).Msg("failed to deactivate lead")
				return false, deErr
			}
			lead.Status = model.LeadStatusInactive
		}
		return false, sendErr
	}

	status := model.LeadStatusContacted
	if next+1 >= len(steps) {
		status = model.LeadStatusCompleted
	}
	if err := p.leads.MarkContacted(lead.ID, status, outcome.SentAt); err != nil {
		return true, appErrors.NewPersistence("mark lead contacted", err)
	}

	sentAt := outcome.SentAt
	lead.ContactAttempts = next + 1
	lead.Status = status
	lead.LastContactedAt = &sentAt
	return true, nil
}
