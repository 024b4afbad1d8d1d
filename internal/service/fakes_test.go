package service

import (
	"errors"
	"sync"
	"time"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/repository"
)

// In-memory fakes mirroring the SQL repositories, including the
// conditional-claim semantics of ClaimStep/ReleaseStep.

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	steps     map[int][]model.CampaignStep
	nextID    int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{
		campaigns: map[int]*model.Campaign{},
		steps:     map[int][]model.CampaignStep{},
	}
}

func (f *fakeCampaignRepo) Create(c *model.Campaign, steps []model.CampaignStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	c.CreatedAt = time.Now()
	cp := *c
	f.campaigns[c.ID] = &cp
	for i := range steps {
		steps[i].CampaignID = c.ID
		steps[i].StepIndex = i
		if steps[i].IntervalHours < 1 {
			steps[i].IntervalHours = 1
		}
	}
	f.steps[c.ID] = append([]model.CampaignStep{}, steps...)
	return nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaignRepo) List(offset, limit int, status string) ([]*model.Campaign, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range f.campaigns {
		if status == "" || c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeCampaignRepo) ListActive() ([]*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.IsActive && c.Status == model.CampaignStatusActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) Steps(campaignID int) ([]model.CampaignStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CampaignStep{}, f.steps[campaignID]...), nil
}

func (f *fakeCampaignRepo) AddSteps(campaignID int, steps []model.CampaignStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := len(f.steps[campaignID])
	for i := range steps {
		steps[i].CampaignID = campaignID
		steps[i].StepIndex = next + i
	}
	f.steps[campaignID] = append(f.steps[campaignID], steps...)
	return nil
}

func (f *fakeCampaignRepo) Rename(campaignID int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Name = name
	return nil
}

func (f *fakeCampaignRepo) UpdateStatus(campaignID int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	c.IsActive = status == model.CampaignStatusActive
	return nil
}

func (f *fakeCampaignRepo) Delete(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(f.campaigns, id)
	delete(f.steps, id)
	return nil
}

func (f *fakeCampaignRepo) Stats(campaignID int) (*repository.CampaignStats, error) {
	return &repository.CampaignStats{Leads: map[string]int{}, Messages: map[string]int{}}, nil
}

type fakeLeadRepo struct {
	mu     sync.Mutex
	leads  map[int]*model.Lead
	nextID int
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[int]*model.Lead{}}
}

func (f *fakeLeadRepo) Create(l *model.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	l.ID = f.nextID
	if l.Status == "" {
		l.Status = model.LeadStatusActive
	}
	cp := *l
	f.leads[l.ID] = &cp
	return nil
}

func (f *fakeLeadRepo) GetByID(id int) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, appErrors.NewLeadNotFound(id)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeadRepo) ListByCampaign(campaignID int, status string) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Lead{}
	for _, l := range f.leads {
		if l.CampaignID == campaignID && (status == "" || l.Status == status) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) Candidates(campaignID int) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Lead{}
	for _, l := range f.leads {
		if l.CampaignID == campaignID && l.Dispatchable() {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) CountRemaining(campaignID int) (int, error) {
	leads, _ := f.Candidates(campaignID)
	return len(leads), nil
}

func (f *fakeLeadRepo) CompleteExhausted(campaignID, stepCount int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.leads {
		if l.CampaignID == campaignID && l.Dispatchable() && l.ContactAttempts >= stepCount {
			l.Status = model.LeadStatusCompleted
			n++
		}
	}
	return n, nil
}

func (f *fakeLeadRepo) ClaimStep(leadID, expectedAttempts int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok || !l.Dispatchable() || l.ContactAttempts != expectedAttempts {
		return false, nil
	}
	l.ContactAttempts++
	return true, nil
}

func (f *fakeLeadRepo) ReleaseStep(leadID, claimedAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if ok && l.ContactAttempts == claimedAttempts {
		l.ContactAttempts--
	}
	return nil
}

func (f *fakeLeadRepo) MarkContacted(leadID int, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.Status = status
	contactedAt := at
	l.LastContactedAt = &contactedAt
	l.LastError = ""
	return nil
}

func (f *fakeLeadRepo) MarkCompleted(leadID int) error {
	return f.UpdateStatus(leadID, model.LeadStatusCompleted)
}

func (f *fakeLeadRepo) Deactivate(leadID int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.Status = model.LeadStatusInactive
	l.LastError = reason
	return nil
}

func (f *fakeLeadRepo) UpdateStatus(leadID int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok {
		return appErrors.NewLeadNotFound(leadID)
	}
	l.Status = status
	return nil
}

type fakeRecordRepo struct {
	mu         sync.Mutex
	records    []model.DispatchRecord
	failCreate bool
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{}
}

func (f *fakeRecordRepo) Create(rec *model.DispatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("storage unavailable")
	}
	rec.ID = len(f.records) + 1
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeRecordRepo) ListByLead(leadID int) ([]model.DispatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.DispatchRecord{}
	for _, r := range f.records {
		if r.LeadID == leadID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CountByStatus(campaignID int) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, r := range f.records {
		if r.CampaignID == campaignID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (f *fakeRecordRepo) all() []model.DispatchRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.DispatchRecord{}, f.records...)
}

var (
	_ repository.CampaignRepositoryInterface       = (*fakeCampaignRepo)(nil)
	_ repository.LeadRepositoryInterface           = (*fakeLeadRepo)(nil)
	_ repository.DispatchRecordRepositoryInterface = (*fakeRecordRepo)(nil)
)
