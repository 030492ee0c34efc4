package mock

import (
	"context"
	"strings"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default canned-response behavior.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Response is returned by the default behavior when set.
	Response string

	callCount  int
	lastSystem string
	lastUser   string
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete returns a canned response for the given prompts.
// Default behavior: returns Response if set, otherwise a short echo of the
// user prompt so answers stay distinguishable in tests.
func (m *MockGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.callCount++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}

	if m.Response != "" {
		return m.Response, nil
	}

	// Default: echo a truncated form of the user prompt
	const maxEcho = 80
	echo := strings.TrimSpace(userPrompt)
	if len(echo) > maxEcho {
		echo = echo[:maxEcho]
	}
	return "mock answer: " + echo, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastPrompts returns the system and user prompts of the most recent call.
func (m *MockGenerator) LastPrompts() (system, user string) {
	return m.lastSystem, m.lastUser
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.lastSystem = ""
	m.lastUser = ""
	m.CompleteFunc = nil
	m.Response = ""
}
