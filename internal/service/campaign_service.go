package service

import (
	"strings"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/queue"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// CampaignService is the administrative surface: campaign lifecycle, step
// management, lead enrollment and statistics. Activating a campaign makes
// its enrolled leads visible to the next sweep; enrolling into an active
// campaign publishes an event for the immediate-enrollment worker.
type CampaignService struct {
	Campaigns repository.CampaignRepositoryInterface
	Leads     repository.LeadRepositoryInterface
	Records   repository.DispatchRecordRepositoryInterface
	Queue     queue.Queue
	Log       zerolog.Logger
}

// StepInput is one step as submitted by an operator. IntervalHours
// defaults to 1 when absent.
type StepInput struct {
	Body          string `json:"body"`
	IntervalHours int    `json:"interval_hours"`
}

// LeadInput is one recipient as submitted by an operator.
type LeadInput struct {
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func buildSteps(inputs []StepInput) ([]model.CampaignStep, error) {
	steps := make([]model.CampaignStep, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Body) == "" {
			return nil, appErrors.NewValidation("body", "step text is required")
		}
		interval := in.IntervalHours
		if interval == 0 {
			interval = 1
		}
		if interval < 1 {
			return nil, appErrors.NewValidation("interval_hours", "must be at least 1")
		}
		steps = append(steps, model.CampaignStep{Body: in.Body, IntervalHours: interval})
	}
	return steps, nil
}

func (s *CampaignService) CreateCampaign(orgID int, name string, stepInputs []StepInput) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, appErrors.NewValidation("name", "campaign name is required")
	}
	steps, err := buildSteps(stepInputs)
	if err != nil {
		return nil, err
	}

	c := &model.Campaign{
		OrgID:  orgID,
		Name:   name,
		Status: model.CampaignStatusDraft,
	}
	if err := s.Campaigns.Create(c, steps); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) AddSteps(campaignID int, stepInputs []StepInput) ([]model.CampaignStep, error) {
	if len(stepInputs) == 0 {
		return nil, appErrors.NewValidation("steps", "at least one step is required")
	}
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == model.CampaignStatusCompleted {
		return nil, appErrors.NewDomainState("campaign", campaignID, campaign.Status, "cannot add steps to a completed campaign")
	}

	steps, err := buildSteps(stepInputs)
	if err != nil {
		return nil, err
	}
	if err := s.Campaigns.AddSteps(campaignID, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// UpdateCampaign renames a campaign.
func (s *CampaignService) UpdateCampaign(campaignID int, name string) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, appErrors.NewValidation("name", "campaign name is required")
	}
	if err := s.Campaigns.Rename(campaignID, name); err != nil {
		return nil, err
	}
	return s.Campaigns.GetByID(campaignID)
}

// Activate moves a draft or paused campaign to active. Already-enrolled
// active leads become visible to the next sweep.
func (s *CampaignService) Activate(campaignID int) (*model.Campaign, error) {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	switch campaign.Status {
	case model.CampaignStatusCompleted:
		return nil, appErrors.NewDomainState("campaign", campaignID, campaign.Status, "completed campaigns cannot be reactivated")
	case model.CampaignStatusActive:
		return campaign, nil
	}
	if err := s.Campaigns.UpdateStatus(campaignID, model.CampaignStatusActive); err != nil {
		return nil, err
	}
	campaign.Status = model.CampaignStatusActive
	campaign.IsActive = true
	return campaign, nil
}

func (s *CampaignService) Pause(campaignID int) (*model.Campaign, error) {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, appErrors.NewDomainState("campaign", campaignID, campaign.Status, "only active campaigns can be paused")
	}
	if err := s.Campaigns.UpdateStatus(campaignID, model.CampaignStatusPaused); err != nil {
		return nil, err
	}
	campaign.Status = model.CampaignStatusPaused
	campaign.IsActive = false
	return campaign, nil
}

// Delete removes the campaign; leads and dispatch records cascade with it.
func (s *CampaignService) Delete(campaignID int) error {
	return s.Campaigns.Delete(campaignID)
}

func (s *CampaignService) GetCampaign(campaignID int) (*model.Campaign, []model.CampaignStep, error) {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.Campaigns.Steps(campaignID)
	if err != nil {
		return nil, nil, err
	}
	return campaign, steps, nil
}

func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]*model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.Campaigns.List(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}

// EnrollLeads adds recipients to a campaign. When the campaign is already
// active, a LeadEnrolledEvent goes on the queue so the worker dispatches
// step 0 without waiting for the next sweep.
func (s *CampaignService) EnrollLeads(campaignID int, inputs []LeadInput) ([]*model.Lead, error) {
	if len(inputs) == 0 {
		return nil, appErrors.NewValidation("leads", "at least one lead is required")
	}
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == model.CampaignStatusCompleted {
		return nil, appErrors.NewDomainState("campaign", campaignID, campaign.Status, "cannot enroll into a completed campaign")
	}

	leads := make([]*model.Lead, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Phone) == "" {
			return nil, appErrors.NewValidation("phone", "lead address is required")
		}
		lead := &model.Lead{
			CampaignID: campaignID,
			OrgID:      campaign.OrgID,
			Phone:      in.Phone,
			Notes:      in.Notes,
			Status:     model.LeadStatusActive,
		}
		if err := s.Leads.Create(lead); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if campaign.IsActive && campaign.Status == model.CampaignStatusActive {
		ids := make([]int, len(leads))
		for i, l := range leads {
			ids[i] = l.ID
		}
		ev := queue.LeadEnrolledEvent{CampaignID: campaignID, LeadIDs: ids}
		if err := s.Queue.Publish(queue.TopicLeadEnrollments, ev); err != nil {
			// The leads are enrolled either way; the next sweep covers them.
			s.Log.Warn().Int("campaign_id", campaignID).Err(err).Msg("failed to publish enrollment event")
		}
	}

	return leads, nil
}

func (s *CampaignService) LeadsByStatus(campaignID int, status string) ([]model.Lead, error) {
	if _, err := s.Campaigns.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.Leads.ListByCampaign(campaignID, status)
}

// LeadHistory returns a lead's dispatch audit trail, oldest first.
func (s *CampaignService) LeadHistory(leadID int) (*model.Lead, []model.DispatchRecord, error) {
	lead, err := s.Leads.GetByID(leadID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.Records.ListByLead(leadID)
	if err != nil {
		return nil, nil, err
	}
	return lead, records, nil
}

// DoNotContact is the operator's terminal opt-out for a lead.
func (s *CampaignService) DoNotContact(leadID int) error {
	return s.Leads.UpdateStatus(leadID, model.LeadStatusDoNotContact)
}

func (s *CampaignService) Stats(campaignID int) (*repository.CampaignStats, error) {
	if _, err := s.Campaigns.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.Campaigns.Stats(campaignID)
}
