package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

type DispatchRecordRepositoryInterface interface {
	Create(rec *model.DispatchRecord) error
	ListByLead(leadID int) ([]model.DispatchRecord, error)
	CountByStatus(campaignID int) (map[string]int, error)
}

// DispatchRecordRepository is append-only: rows are never updated or
// deleted by this service, they are the audit trail.
type DispatchRecordRepository struct {
	DB *sqlx.DB
}

func (r *DispatchRecordRepository) Create(rec *model.DispatchRecord) error {
	rec.CreatedAt = time.Now()
	return r.DB.QueryRow(`
		INSERT INTO dispatch_records
			(lead_id, campaign_id, step_index, body, status, provider_message_id,
			 failure_reason, retry_count, scheduled_at, sent_at, next_scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, rec.LeadID, rec.CampaignID, rec.StepIndex, rec.Body, rec.Status,
		rec.ProviderMessageID, rec.FailureReason, rec.RetryCount,
		rec.ScheduledAt, rec.SentAt, rec.NextScheduledAt, rec.CreatedAt).Scan(&rec.ID)
}

func (r *DispatchRecordRepository) ListByLead(leadID int) ([]model.DispatchRecord, error) {
	records := []model.DispatchRecord{}
	err := r.DB.Select(&records, `
		SELECT id, lead_id, campaign_id, step_index, body, status, provider_message_id,
		       failure_reason, retry_count, scheduled_at, sent_at, next_scheduled_at, created_at
		FROM dispatch_records
		WHERE lead_id=$1
		ORDER BY id
	`, leadID)
	return records, err
}

func (r *DispatchRecordRepository) CountByStatus(campaignID int) (map[string]int, error) {
	rows, err := r.DB.Query(`
		SELECT status, COUNT(*) FROM dispatch_records WHERE campaign_id=$1 GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

var _ DispatchRecordRepositoryInterface = (*DispatchRecordRepository)(nil)
