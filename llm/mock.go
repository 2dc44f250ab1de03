package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted Provider for tests. Responses are returned in
// order; once exhausted, the last response repeats. Requests are recorded
// for assertions.
type MockProvider struct {
	mu        sync.Mutex
	responses []Response
	err       error
	requests  []Request
}

// NewMock creates a mock provider returning the given responses.
func NewMock(responses ...Response) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewMockError creates a mock provider that always fails with err.
func NewMockError(err error) *MockProvider {
	return &MockProvider{err: err}
}

// Name implements Provider.
func (m *MockProvider) Name() string { return "mock" }

// Complete implements Provider.
func (m *MockProvider) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return Response{}, m.err
	}
	if len(m.responses) == 0 {
		return Response{}, ErrEmptyResponse
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
