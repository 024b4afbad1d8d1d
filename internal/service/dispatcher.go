package service

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/gateway"
	"github.com/unclebandit/dripcampaign-backend/internal/model"
)

// DispatchOutcome describes one accepted gateway send.
type DispatchOutcome struct {
	ProviderMessageID string
	SentAt            time.Time
}

// Dispatcher performs exactly one gateway call per invocation and classifies
// the result. It is stateless; lead mutations and single-flight per lead are
// the caller's responsibility.
type Dispatcher struct {
	Gateway gateway.Gateway
	Timeout time.Duration
	Now     func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// SendStep sends one step to one lead. Failures come back as
// GatewayPermanentError (undeliverable address, deactivate the lead) or
// GatewayTransientError (retry on a later sweep).
func (d *Dispatcher) SendStep(ctx context.Context, lead *model.Lead, step *model.CampaignStep) (*DispatchOutcome, error) {
	if lead.Phone == "" {
		return nil, appErrors.NewValidation("phone", "lead has no address")
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := d.Gateway.Send(ctx, lead.Phone, step.Body)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			if gwErr.Permanent() {
				return nil, appErrors.NewGatewayPermanent(gwErr.Code, gwErr.Message)
			}
			return nil, appErrors.NewGatewayTransient(gwErr.Code, gwErr.Message)
		}
		// Network errors, timeouts etc. are retryable.
		return nil, appErrors.NewGatewayTransient("network", err.Error())
	}

	return &DispatchOutcome{
		ProviderMessageID: res.ProviderMessageID,
		SentAt:            d.now(),
	}, nil
}
