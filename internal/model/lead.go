package model

import "time"

// Lead statuses. "contacted" is a non-terminal sub-state of active: the lead
// got a step and is waiting out the next interval. Eligibility is computed
// from ContactAttempts/LastContactedAt, so both active and contacted leads
// are sweep candidates. Terminal states are completed, inactive and
// do_not_contact.
const (
	LeadStatusActive       = "active"
	LeadStatusContacted    = "contacted"
	LeadStatusInactive     = "inactive"
	LeadStatusDoNotContact = "do_not_contact"
	LeadStatusCompleted    = "completed"
)

type Lead struct {
	ID              int        `db:"id" json:"id"`
	CampaignID      int        `db:"campaign_id" json:"campaign_id"`
	OrgID           int        `db:"org_id" json:"org_id"`
	Phone           string     `db:"phone" json:"phone"`
	Status          string     `db:"status" json:"status"`
	ContactAttempts int        `db:"contact_attempts" json:"contact_attempts"`
	LastContactedAt *time.Time `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
	LastError       string     `db:"last_error" json:"last_error,omitempty"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Dispatchable reports whether the lead may still receive steps.
// ContactAttempts is the index of the next step to send.
func (l *Lead) Dispatchable() bool {
	return l.Status == LeadStatusActive || l.Status == LeadStatusContacted
}
