package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
	"github.com/unclebandit/dripcampaign-backend/internal/queue"
)

func TestOnLeadAddedDispatchesStepZero(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive, step("A", 1), step("B", 2))
	l := env.addLead(c.ID, "+254700000001")

	err := env.enroll.OnLeadAdded(context.Background(), l, c)

	require.NoError(t, err)
	require.Len(t, env.gw.Calls(), 1)
	assert.Equal(t, "A", env.gw.Calls()[0].Text)

	lead := env.lead(l.ID)
	assert.Equal(t, 1, lead.ContactAttempts)
	assert.Equal(t, model.LeadStatusContacted, lead.Status)
}

func TestOnLeadAddedSkipsInactiveCampaign(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusDraft, step("A", 1))
	l := env.addLead(c.ID, "+254700000001")

	err := env.enroll.OnLeadAdded(context.Background(), l, c)

	require.NoError(t, err)
	assert.Empty(t, env.gw.Calls(), "draft campaigns wait for activation")
	assert.Equal(t, 0, env.lead(l.ID).ContactAttempts)
}

func TestOnLeadAddedSkipsZeroStepCampaign(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive)
	l := env.addLead(c.ID, "+254700000001")

	err := env.enroll.OnLeadAdded(context.Background(), l, c)

	require.NoError(t, err)
	assert.Empty(t, env.gw.Calls())
}

// Full drip timeline: immediate step 0 on enrollment, then the sweeps pick
// up step 1 only once its interval has elapsed.
func TestEnrollmentThenSweepTimeline(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive, step("A", 1), step("B", 2))
	l := env.addLead(c.ID, "+254700000001")

	require.NoError(t, env.enroll.OnLeadAdded(context.Background(), l, c))
	assert.Equal(t, 1, env.lead(l.ID).ContactAttempts)

	// One hour later: step 1 needs a 2h gap, nothing goes out.
	env.advance(1 * time.Hour)
	res, err := env.sweeper.ProcessCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)

	// Two hours after the first contact: step 1 is due.
	env.advance(1 * time.Hour)
	res, err = env.sweeper.ProcessCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.True(t, res.Completed)

	lead := env.lead(l.ID)
	assert.Equal(t, 2, lead.ContactAttempts)
	assert.Equal(t, model.LeadStatusCompleted, lead.Status)

	calls := env.gw.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "A", calls[0].Text)
	assert.Equal(t, "B", calls[1].Text)
}

func TestOnLeadsAddedBulkWithIsolatedFailure(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive, step("A", 1))

	leads := make([]*model.Lead, 0, 50)
	for i := 0; i < 50; i++ {
		leads = append(leads, env.addLead(c.ID, fmt.Sprintf("+2547000001%02d", i)))
	}
	env.gw.Fail[leads[7].Phone] = &gateway.Error{Code: "unroutable", Message: "no route"}

	result, err := env.enroll.OnLeadsAdded(context.Background(), leads, c)

	require.NoError(t, err)
	assert.Equal(t, 49, result.Dispatched)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, env.gw.Calls(), 49)
	assert.Equal(t, model.LeadStatusInactive, env.lead(leads[7].ID).Status)
}

func TestOnLeadsAddedAlreadyClaimedLeadSkipped(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive, step("A", 1))
	l := env.addLead(c.ID, "+254700000001")

	// A sweep processed this lead before the event arrived; the trigger
	// still holds the stale pre-sweep snapshot.
	_, err := env.sweeper.ProcessCampaign(context.Background(), c.ID)
	require.NoError(t, err)

	result, err := env.enroll.OnLeadsAdded(context.Background(), []*model.Lead{l}, c)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Dispatched)
	assert.Empty(t, result.Errors, "a lost claim is a skip, not an error")
	assert.Len(t, env.gw.Calls(), 1, "no double dispatch")
}

func TestHandleEventRunsBulkTrigger(t *testing.T) {
	env := newTestEnv()
	c := env.addCampaign(model.CampaignStatusActive, step("A", 1))
	l1 := env.addLead(c.ID, "+254700000001")
	l2 := env.addLead(c.ID, "+254700000002")

	body, err := json.Marshal(queue.LeadEnrolledEvent{
		CampaignID: c.ID,
		LeadIDs:    []int{l1.ID, l2.ID, 999}, // one vanished lead
	})
	require.NoError(t, err)

	require.NoError(t, env.enroll.HandleEvent(context.Background(), body))

	assert.Len(t, env.gw.Calls(), 2)
	assert.Equal(t, 1, env.lead(l1.ID).ContactAttempts)
	assert.Equal(t, 1, env.lead(l2.ID).ContactAttempts)
}

func TestHandleEventDropsMalformedPayload(t *testing.T) {
	env := newTestEnv()

	err := env.enroll.HandleEvent(context.Background(), []byte("not json"))

	assert.NoError(t, err, "malformed events are dropped, not requeued")
}
