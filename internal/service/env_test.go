package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

// testEnv wires the scheduler components against in-memory fakes and a
// controllable clock.
type testEnv struct {
	clock     time.Time
	campaigns *fakeCampaignRepo
	leads     *fakeLeadRepo
	records   *fakeRecordRepo
	gw        *gateway.Mock
	sweeper   *Sweeper
	enroll    *Enrollment
}

func newTestEnv() *testEnv {
	env := &testEnv{
		clock:     time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		campaigns: newFakeCampaignRepo(),
		leads:     newFakeLeadRepo(),
		records:   newFakeRecordRepo(),
		gw:        gateway.NewMock(),
	}
	now := func() time.Time { return env.clock }

	dispatcher := &Dispatcher{Gateway: env.gw, Now: now}
	recorder := &Recorder{Records: env.records, Now: now, Log: zerolog.Nop()}

	env.sweeper = &Sweeper{
		Campaigns:  env.campaigns,
		Leads:      env.leads,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		Now:        now,
		Log:        zerolog.Nop(),
	}
	env.enroll = &Enrollment{
		Campaigns:  env.campaigns,
		Leads:      env.leads,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		BatchSize:  10,
		BatchDelay: time.Millisecond,
		Log:        zerolog.Nop(),
	}
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) addCampaign(status string, steps ...model.CampaignStep) *model.Campaign {
	c := &model.Campaign{
		OrgID:    1,
		Name:     "test campaign",
		Status:   status,
		IsActive: status == model.CampaignStatusActive,
	}
	if err := e.campaigns.Create(c, steps); err != nil {
		panic(err)
	}
	return c
}

func (e *testEnv) addLead(campaignID int, phone string) *model.Lead {
	l := &model.Lead{CampaignID: campaignID, OrgID: 1, Phone: phone}
	if err := e.leads.Create(l); err != nil {
		panic(err)
	}
	return l
}

func (e *testEnv) lead(id int) *model.Lead {
	l, err := e.leads.GetByID(id)
	if err != nil {
		panic(err)
	}
	return l
}

func (e *testEnv) campaign(id int) *model.Campaign {
	c, err := e.campaigns.GetByID(id)
	if err != nil {
		panic(err)
	}
	return c
}

func step(body string, intervalHours int) model.CampaignStep {
	return model.CampaignStep{Body: body, IntervalHours: intervalHours}
}
