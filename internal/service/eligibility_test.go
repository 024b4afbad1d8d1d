package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

func TestReadyLeadsFirstTouch(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	steps := []model.CampaignStep{step("hello", 1)}
	leads := []model.Lead{
		{ID: 1, Status: model.LeadStatusActive},
		{ID: 2, Status: model.LeadStatusActive},
	}

	ready := ReadyLeads(steps, leads, now)

	assert.Len(t, ready, 2, "never-contacted active leads are ready immediately")
}

func TestReadyLeadsIntervalBoundary(t *testing.T) {
	contacted := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	steps := []model.CampaignStep{step("a", 1), step("b", 24)}
	lead := model.Lead{
		ID:              1,
		Status:          model.LeadStatusContacted,
		ContactAttempts: 1,
		LastContactedAt: &contacted,
	}

	// 23h in: the 24h gap before step 1 has not elapsed.
	ready := ReadyLeads(steps, []model.Lead{lead}, contacted.Add(23*time.Hour))
	assert.Empty(t, ready)

	// Exactly 24h in: due.
	ready = ReadyLeads(steps, []model.Lead{lead}, contacted.Add(24*time.Hour))
	assert.Len(t, ready, 1)
}

func TestReadyLeadsZeroStepCampaign(t *testing.T) {
	now := time.Now()
	leads := []model.Lead{{ID: 1, Status: model.LeadStatusActive}}

	ready := ReadyLeads(nil, leads, now)

	assert.Empty(t, ready)
}

func TestReadyLeadsNoLeads(t *testing.T) {
	ready := ReadyLeads([]model.CampaignStep{step("a", 1)}, nil, time.Now())
	assert.Empty(t, ready)
}

func TestReadyLeadsExhaustedSequenceSkipped(t *testing.T) {
	contacted := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	steps := []model.CampaignStep{step("a", 1)}
	lead := model.Lead{
		ID:              1,
		Status:          model.LeadStatusContacted,
		ContactAttempts: 1,
		LastContactedAt: &contacted,
	}

	ready := ReadyLeads(steps, []model.Lead{lead}, contacted.Add(48*time.Hour))

	assert.Empty(t, ready, "a lead past the last step is never re-dispatched")
}

func TestReadyLeadsSkipsTerminalStatuses(t *testing.T) {
	now := time.Now()
	steps := []model.CampaignStep{step("a", 1)}
	leads := []model.Lead{
		{ID: 1, Status: model.LeadStatusInactive},
		{ID: 2, Status: model.LeadStatusDoNotContact},
		{ID: 3, Status: model.LeadStatusCompleted},
	}

	ready := ReadyLeads(steps, leads, now)

	assert.Empty(t, ready)
}
