package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

// CampaignStats aggregates lead and message counts by status.
type CampaignStats struct {
	Leads    map[string]int `json:"leads"`
	Messages map[string]int `json:"messages"`
}

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign, steps []model.CampaignStep) error
	GetByID(id int) (*model.Campaign, error)
	List(offset, limit int, status string) ([]*model.Campaign, int, error)
	ListActive() ([]*model.Campaign, error)
	Steps(campaignID int) ([]model.CampaignStep, error)
	AddSteps(campaignID int, steps []model.CampaignStep) error
	Rename(campaignID int, name string) error
	UpdateStatus(campaignID int, status string) error
	Delete(id int) error
	Stats(campaignID int) (*CampaignStats, error)
}

type CampaignRepository struct {
	DB *sqlx.DB
}

// Create inserts the campaign and its initial steps in one transaction.
func (r *CampaignRepository) Create(c *model.Campaign, steps []model.CampaignStep) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}

	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO campaigns (org_id, name, is_active, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.OrgID, c.Name, c.IsActive, c.Status, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return err
	}

	for i := range steps {
		steps[i].CampaignID = c.ID
		steps[i].StepIndex = i
		if err := insertStep(tx, &steps[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertStep(tx *sqlx.Tx, s *model.CampaignStep) error {
	if s.IntervalHours < 1 {
		s.IntervalHours = 1
	}
	return tx.QueryRow(`
		INSERT INTO campaign_steps (campaign_id, step_index, body, interval_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.CampaignID, s.StepIndex, s.Body, s.IntervalHours).Scan(&s.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	var c model.Campaign
	err := r.DB.Get(&c, `
		SELECT id, org_id, name, is_active, status, created_at, updated_at
		FROM campaigns WHERE id=$1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, org_id, name, is_active, status, created_at, updated_at FROM campaigns WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	args := []interface{}{}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
		countQuery += fmt.Sprintf(" AND status=$%d", len(args))
	}

	var total int
	if err := r.DB.Get(&total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	if err := r.DB.Select(&campaigns, query, args...); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListActive returns campaigns the sweeper should process.
func (r *CampaignRepository) ListActive() ([]*model.Campaign, error) {
	campaigns := []*model.Campaign{}
	err := r.DB.Select(&campaigns, `
		SELECT id, org_id, name, is_active, status, created_at, updated_at
		FROM campaigns
		WHERE is_active=TRUE AND status=$1
		ORDER BY id
	`, model.CampaignStatusActive)
	return campaigns, err
}

// Steps returns the campaign's steps ordered by step_index.
func (r *CampaignRepository) Steps(campaignID int) ([]model.CampaignStep, error) {
	steps := []model.CampaignStep{}
	err := r.DB.Select(&steps, `
		SELECT id, campaign_id, step_index, body, interval_hours
		FROM campaign_steps
		WHERE campaign_id=$1
		ORDER BY step_index
	`, campaignID)
	return steps, err
}

// AddSteps appends steps after the current highest index.
func (r *CampaignRepository) AddSteps(campaignID int, steps []model.CampaignStep) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.Get(&next, `
		SELECT COALESCE(MAX(step_index)+1, 0) FROM campaign_steps WHERE campaign_id=$1
	`, campaignID)
	if err != nil {
		return err
	}

	for i := range steps {
		steps[i].CampaignID = campaignID
		steps[i].StepIndex = next + i
		if err := insertStep(tx, &steps[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) Rename(campaignID int, name string) error {
	res, err := r.DB.Exec(`UPDATE campaigns SET name=$1, updated_at=NOW() WHERE id=$2`, name, campaignID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

// UpdateStatus moves the campaign lifecycle; is_active tracks whether the
// sweeper should pick it up.
func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	isActive := status == model.CampaignStatusActive
	res, err := r.DB.Exec(`
		UPDATE campaigns SET status=$1, is_active=$2, updated_at=NOW() WHERE id=$3
	`, status, isActive, campaignID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

// Delete removes the campaign; steps, leads and dispatch records cascade.
func (r *CampaignRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *CampaignRepository) Stats(campaignID int) (*CampaignStats, error) {
	stats := &CampaignStats{
		Leads: map[string]int{
			model.LeadStatusActive:       0,
			model.LeadStatusContacted:    0,
			model.LeadStatusInactive:     0,
			model.LeadStatusDoNotContact: 0,
			model.LeadStatusCompleted:    0,
		},
		Messages: map[string]int{
			model.DispatchStatusPending: 0,
			model.DispatchStatusSent:    0,
			model.DispatchStatusFailed:  0,
		},
	}

	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM leads WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Leads[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.DB.Query(`SELECT status, COUNT(*) FROM dispatch_records WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Messages[status] = count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
