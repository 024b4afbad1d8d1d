package gateway

import (
	"context"
	"fmt"
	"sync"
)

// MockSend records one call to the mock gateway.
type MockSend struct {
	Address string
	Text    string
}

// Mock is an in-memory gateway for local runs and tests. Failures are
// scripted per address via Fail.
type Mock struct {
	mu    sync.Mutex
	calls []MockSend
	next  int

	// Fail maps an address to the error its sends should return.
	Fail map[string]*Error
}

func NewMock() *Mock {
	return &Mock{Fail: map[string]*Error{}}
}

func (m *Mock) Send(ctx context.Context, address, text string) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gwErr, ok := m.Fail[address]; ok {
		return nil, gwErr
	}

	m.calls = append(m.calls, MockSend{Address: address, Text: text})
	m.next++
	return &SendResult{ProviderMessageID: fmt.Sprintf("mock-%d", m.next)}, nil
}

// Calls returns a copy of the successful sends so far.
func (m *Mock) Calls() []MockSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockSend, len(m.calls))
	copy(out, m.calls)
	return out
}
