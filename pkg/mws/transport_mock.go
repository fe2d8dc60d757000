package mws

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// SubmitCall records one call made to a MockTransport.
type SubmitCall struct {
	URL   string
	Query string
}

// MockTransport is a Transport for tests.
type MockTransport struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnSubmit func(ctx context.Context, url, query string) (*Response, error)

	mu    sync.Mutex
	calls []SubmitCall
}

// NewMockTransport creates a mock transport answering 200 with an empty body.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Submit records the call and answers through OnSubmit when set.
func (m *MockTransport) Submit(ctx context.Context, url, query string) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SubmitCall{URL: url, Query: query})
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, NewAPIError("mock", "MOCK_ERROR", "Simulated transport error").
			WithCause(ErrServiceUnavailable).
			WithRetryable(true)
	}

	if m.OnSubmit != nil {
		return m.OnSubmit(ctx, url, query)
	}

	return &Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
}

// Calls returns the calls made so far.
func (m *MockTransport) Calls() []SubmitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubmitCall, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Transport = (*MockTransport)(nil)
