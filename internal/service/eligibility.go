package service

import (
	"time"

	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

// ReadyLeads returns the leads whose next step is due at now. Pure function,
// no side effects:
//   - never contacted → ready immediately
//   - next step index (= ContactAttempts) past the end → skipped; the
//     sweeper's completion pass picks those up
//   - otherwise ready iff last_contacted_at <= now - step interval
//
// A campaign with no steps or no candidates yields an empty slice.
func ReadyLeads(steps []model.CampaignStep, leads []model.Lead, now time.Time) []model.Lead {
	ready := []model.Lead{}
	if len(steps) == 0 {
		return ready
	}

	for _, lead := range leads {
		if !lead.Dispatchable() {
			continue
		}
		if lead.LastContactedAt == nil {
			ready = append(ready, lead)
			continue
		}

		next := lead.ContactAttempts
		if next >= len(steps) {
			continue
		}

		interval := time.Duration(steps[next].IntervalHours) * time.Hour
		if !lead.LastContactedAt.After(now.Add(-interval)) {
			ready = append(ready, lead)
		}
	}
	return ready
}
