package harden

import (
	"context"
	"errors"
)

type mockProber struct {
	outputFunc func(program string, args []string) (string, error)
	lineFunc   func(path string, match LineMatch) (string, bool, error)
	existing   map[string]bool
	callCount  int
}

func (m *mockProber) CommandOutput(ctx context.Context, program string, args ...string) (string, error) {
	m.callCount++
	if m.outputFunc != nil {
		return m.outputFunc(program, args)
	}
	return "", nil
}

func (m *mockProber) MatchingLine(path string, match LineMatch) (string, bool, error) {
	m.callCount++
	if m.lineFunc != nil {
		return m.lineFunc(path, match)
	}
	return "", false, nil
}

func (m *mockProber) FileExists(path string) bool {
	m.callCount++
	return m.existing[path]
}

type mockEnumerator struct {
	entities  []string
	err       error
	callCount int
}

func (m *mockEnumerator) List(ctx context.Context) ([]string, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

type mockResolver struct {
	args []string
	err  error
}

func (m mockResolver) Resolve(ctx context.Context) ([]string, error) {
	return m.args, m.err
}

func (m mockResolver) String() string {
	return "mock"
}

type mockPlanner struct {
	planFunc  func(rule Rule) ([]ActionSpec, error)
	callCount int
}

func (m *mockPlanner) Plan(ctx context.Context, rule Rule) ([]ActionSpec, error) {
	m.callCount++
	if m.planFunc != nil {
		return m.planFunc(rule)
	}
	return nil, nil
}

type mockExecutor struct {
	runFunc func(spec ActionSpec) (*Result, error)
	ran     []string
}

func (m *mockExecutor) Run(ctx context.Context, spec ActionSpec) (*Result, error) {
	m.ran = append(m.ran, spec.ID)
	if m.runFunc != nil {
		return m.runFunc(spec)
	}
	return &Result{Success: true}, nil
}

type recordingReporter struct {
	events []Event
}

func (r *recordingReporter) Report(ev Event) {
	r.events = append(r.events, ev)
}

var errBoom = errors.New("boom")
