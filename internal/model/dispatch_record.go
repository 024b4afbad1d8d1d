package model

import "time"

// Dispatch record statuses. "delivered" is reserved for a future delivery
// callback consumer; nothing in this service sets it.
const (
	DispatchStatusPending   = "pending"
	DispatchStatusSent      = "sent"
	DispatchStatusDelivered = "delivered"
	DispatchStatusFailed    = "failed"
	DispatchStatusCancelled = "cancelled"
)

// DispatchRecord is the append-only audit row for one dispatch attempt.
// One row is expected per (lead, step_index); retries add further rows.
// NextScheduledAt is a derived hint only, never the source of truth for
// eligibility.
type DispatchRecord struct {
	ID                int        `db:"id" json:"id"`
	LeadID            int        `db:"lead_id" json:"lead_id"`
	CampaignID        int        `db:"campaign_id" json:"campaign_id"`
	StepIndex         int        `db:"step_index" json:"step_index"`
	Body              string     `db:"body" json:"body"`
	Status            string     `db:"status" json:"status"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	FailureReason     string     `db:"failure_reason" json:"failure_reason,omitempty"`
	RetryCount        int        `db:"retry_count" json:"retry_count"`
	ScheduledAt       time.Time  `db:"scheduled_at" json:"scheduled_at"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	NextScheduledAt   *time.Time `db:"next_scheduled_at" json:"next_scheduled_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
