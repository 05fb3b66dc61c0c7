package command

import (
	"context"
	"strings"
	"sync"
)

// MockRunner implements Runner for testing.
// Outputs are keyed by the full command line ("brew info --json=v2 slack").
type MockRunner struct {
	// RunFunc, when set, handles every call
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)
	// Outputs holds canned stdout per command line
	Outputs map[string][]byte
	// Errors holds canned errors per command line
	Errors map[string]error

	mu    sync.Mutex
	calls []string
}

// NewMockRunner creates a MockRunner with empty canned responses
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Outputs: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

// Run records the call and returns the canned response
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)

	m.mu.Lock()
	m.calls = append(m.calls, line)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	if err, ok := m.Errors[line]; ok {
		return nil, err
	}
	if out, ok := m.Outputs[line]; ok {
		return out, nil
	}
	return nil, ErrCommand
}

// Calls returns the recorded command lines in call order
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CommandLine joins a program and its arguments with spaces
func CommandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// Ensure MockRunner implements Runner interface
var _ Runner = (*MockRunner)(nil)
