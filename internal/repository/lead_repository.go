package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

type LeadRepositoryInterface interface {
	Create(l *model.Lead) error
	GetByID(id int) (*model.Lead, error)
	ListByCampaign(campaignID int, status string) ([]model.Lead, error)
	Candidates(campaignID int) ([]model.Lead, error)
	CountRemaining(campaignID int) (int, error)
	CompleteExhausted(campaignID, stepCount int) (int, error)
	ClaimStep(leadID, expectedAttempts int) (bool, error)
	ReleaseStep(leadID, claimedAttempts int) error
	MarkContacted(leadID int, status string, at time.Time) error
	MarkCompleted(leadID int) error
	Deactivate(leadID int, reason string) error
	UpdateStatus(leadID int, status string) error
}

type LeadRepository struct {
	DB *sqlx.DB
}

func (r *LeadRepository) Create(l *model.Lead) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = model.LeadStatusActive
	}
	return r.DB.QueryRow(`
		INSERT INTO leads (campaign_id, org_id, phone, status, contact_attempts, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
		RETURNING id
	`, l.CampaignID, l.OrgID, l.Phone, l.Status, l.Notes, l.CreatedAt, l.UpdatedAt).Scan(&l.ID)
}

func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	var l model.Lead
	err := r.DB.Get(&l, `
		SELECT id, campaign_id, org_id, phone, status, contact_attempts,
		       last_contacted_at, last_error, notes, created_at, updated_at
		FROM leads WHERE id=$1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewLeadNotFound(id)
		}
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) ListByCampaign(campaignID int, status string) ([]model.Lead, error) {
	leads := []model.Lead{}
	if status == "" {
		err := r.DB.Select(&leads, `
			SELECT id, campaign_id, org_id, phone, status, contact_attempts,
			       last_contacted_at, last_error, notes, created_at, updated_at
			FROM leads WHERE campaign_id=$1 ORDER BY id
		`, campaignID)
		return leads, err
	}
	err := r.DB.Select(&leads, `
		SELECT id, campaign_id, org_id, phone, status, contact_attempts,
		       last_contacted_at, last_error, notes, created_at, updated_at
		FROM leads WHERE campaign_id=$1 AND status=$2 ORDER BY id
	`, campaignID, status)
	return leads, err
}

// Candidates returns the leads the eligibility evaluator should look at:
// active plus contacted, since contacted only means "waiting out the next
// interval". Hits the (campaign_id, status) index.
func (r *LeadRepository) Candidates(campaignID int) ([]model.Lead, error) {
	leads := []model.Lead{}
	err := r.DB.Select(&leads, `
		SELECT id, campaign_id, org_id, phone, status, contact_attempts,
		       last_contacted_at, last_error, notes, created_at, updated_at
		FROM leads
		WHERE campaign_id=$1 AND status IN ($2, $3)
		ORDER BY last_contacted_at NULLS FIRST, id
	`, campaignID, model.LeadStatusActive, model.LeadStatusContacted)
	return leads, err
}

// CountRemaining counts leads that could still receive a step. Zero means
// the campaign is done.
func (r *LeadRepository) CountRemaining(campaignID int) (int, error) {
	var count int
	err := r.DB.Get(&count, `
		SELECT COUNT(*) FROM leads
		WHERE campaign_id=$1 AND status IN ($2, $3)
	`, campaignID, model.LeadStatusActive, model.LeadStatusContacted)
	return count, err
}

// CompleteExhausted flips leads that have run through every step to
// completed and returns how many were flipped.
func (r *LeadRepository) CompleteExhausted(campaignID, stepCount int) (int, error) {
	res, err := r.DB.Exec(`
		UPDATE leads SET status=$1, updated_at=NOW()
		WHERE campaign_id=$2 AND status IN ($3, $4) AND contact_attempts >= $5
	`, model.LeadStatusCompleted, campaignID, model.LeadStatusActive, model.LeadStatusContacted, stepCount)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ClaimStep is the single-flight lease: the conditional increment only
// succeeds if contact_attempts still holds the value the caller read, so
// two overlapping sweeps cannot double-dispatch the same lead. A false
// return means another worker already claimed it.
func (r *LeadRepository) ClaimStep(leadID, expectedAttempts int) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE leads SET contact_attempts = contact_attempts + 1, updated_at=NOW()
		WHERE id=$1 AND contact_attempts=$2 AND status IN ($3, $4)
	`, leadID, expectedAttempts, model.LeadStatusActive, model.LeadStatusContacted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseStep rolls a claim back after a failed dispatch so the lead stays
// eligible on the next sweep. Conditional on the claimed value, mirroring
// ClaimStep.
func (r *LeadRepository) ReleaseStep(leadID, claimedAttempts int) error {
	_, err := r.DB.Exec(`
		UPDATE leads SET contact_attempts = contact_attempts - 1, updated_at=NOW()
		WHERE id=$1 AND contact_attempts=$2
	`, leadID, claimedAttempts)
	return err
}

// MarkContacted records a successful dispatch: status becomes contacted
// (or completed when it was the final step) and last_contacted_at moves
// forward.
func (r *LeadRepository) MarkContacted(leadID int, status string, at time.Time) error {
	_, err := r.DB.Exec(`
		UPDATE leads SET status=$1, last_contacted_at=$2, last_error='', updated_at=NOW()
		WHERE id=$3
	`, status, at, leadID)
	return err
}

func (r *LeadRepository) MarkCompleted(leadID int) error {
	return r.UpdateStatus(leadID, model.LeadStatusCompleted)
}

// Deactivate is the permanent-failure transition: the address is
// undeliverable and the lead must never be retried.
func (r *LeadRepository) Deactivate(leadID int, reason string) error {
	_, err := r.DB.Exec(`
		UPDATE leads SET status=$1, last_error=$2, updated_at=NOW()
		WHERE id=$3
	`, model.LeadStatusInactive, reason, leadID)
	return err
}

func (r *LeadRepository) UpdateStatus(leadID int, status string) error {
	res, err := r.DB.Exec(`UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2`, status, leadID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewLeadNotFound(leadID)
	}
	return nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
