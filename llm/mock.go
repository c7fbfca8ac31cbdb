package llm

import (
	"context"
	"strings"
	"sync"
)

// MockGenerator returns canned responses chosen by prompt substring.
// It is safe for concurrent use and records every prompt it receives.
type MockGenerator struct {
	mu      sync.Mutex
	rules   []mockRule
	prompts []string
}

type mockRule struct {
	match    string
	response string
	err      error
	hang     bool
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// On answers prompts containing match with response
func (m *MockGenerator) On(match, response string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, response: response})
	return m
}

// Fail answers prompts containing match with err
func (m *MockGenerator) Fail(match string, err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, err: err})
	return m
}

// Hang blocks prompts containing match until their context is done
func (m *MockGenerator) Hang(match string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, hang: true})
	return m
}

// Generate returns the first matching rule's result, or "" when nothing matches
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	var rule *mockRule
	for i := range m.rules {
		if strings.Contains(prompt, m.rules[i].match) {
			r := m.rules[i]
			rule = &r
			break
		}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rule == nil {
		return "", nil
	}
	if rule.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return rule.response, rule.err
}

// Prompts returns a copy of the prompts received so far
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
