package model

import "time"

// Campaign lifecycle statuses.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

type Campaign struct {
	ID        int        `db:"id" json:"id"`
	OrgID     int        `db:"org_id" json:"org_id"`
	Name      string     `db:"name" json:"name"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CampaignStep is one message in a campaign's ordered sequence. Steps are
// addressed by StepIndex; IntervalHours is the wait since the *previous*
// contact, not since enrollment.
type CampaignStep struct {
	ID            int    `db:"id" json:"id"`
	CampaignID    int    `db:"campaign_id" json:"campaign_id"`
	StepIndex     int    `db:"step_index" json:"step_index"`
	Body          string `db:"body" json:"body"`
	IntervalHours int    `db:"interval_hours" json:"interval_hours"`
}
