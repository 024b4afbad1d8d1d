package service

import (
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// Recorder appends the immutable audit row for each dispatch attempt.
type Recorder struct {
	Records repository.DispatchRecordRepositoryInterface
	Now     func() time.Time
	Log     zerolog.Logger
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Record writes one DispatchRecord for the attempt. next_scheduled_at is
// derived from the step's own interval and is a hint only. A failed write
// comes back as a PersistenceError; the message already left the building,
// so callers log it and move on instead of rolling anything back.
func (r *Recorder) Record(lead *model.Lead, step *model.CampaignStep, outcome *DispatchOutcome, sendErr error) error {
	now := r.now()
	next := now.Add(time.Duration(step.IntervalHours) * time.Hour)

	rec := &model.DispatchRecord{
		LeadID:          lead.ID,
		CampaignID:      lead.CampaignID,
		StepIndex:       step.StepIndex,
		Body:            step.Body,
		ScheduledAt:     now,
		NextScheduledAt: &next,
	}

	if sendErr != nil {
		rec.Status = model.DispatchStatusFailed
		rec.FailureReason = sendErr.Error()
	} else {
		rec.Status = model.DispatchStatusSent
		rec.ProviderMessageID = outcome.ProviderMessageID
		sentAt := outcome.SentAt
		rec.SentAt = &sentAt
	}

	if err := r.Records.Create(rec); err != nil {
		r.Log.Error().
			Int("lead_id", lead.ID).
			Int("campaign_id", lead.CampaignID).
			Int("step_index", step.StepIndex).
			Err(err).
			Msg("failed to persist dispatch record")
		return appErrors.NewPersistence("create dispatch record", err)
	}
	return nil
}
