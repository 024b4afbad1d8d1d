package gateway

import (
	"context"
	"fmt"
)

// SendResult is the provider's acknowledgement of an accepted message.
type SendResult struct {
	ProviderMessageID string
}

// Gateway is the outbound messaging provider. Implementations must return
// *Error for provider-reported failures so callers can classify them.
type Gateway interface {
	Send(ctx context.Context, address, text string) (*SendResult, error)
}

// Error is a failure reported by the provider.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

// Provider codes that mean the address can never be reached. Everything
// else is treated as retryable.
var permanentCodes = map[string]bool{
	"invalid_number": true,
	"unroutable":     true,
	"not_mobile":     true,
}

// Permanent reports whether the failure deactivates the recipient.
func (e *Error) Permanent() bool {
	return permanentCodes[e.Code]
}
