package invoke

import "context"

// MockRunner implements [Runner] without spawning processes.
//
// Results are returned in order; after the script is exhausted the last
// entry repeats. Every request is recorded for assertions.
type MockRunner struct {
	// Results is the scripted sequence of results to return.
	Results []Result

	// Err, when set, is returned from every call alongside a zero Result.
	Err error

	// Requests records every request in call order.
	Requests []Request

	calls int
}

// Run returns the next scripted result.
func (m *MockRunner) Run(ctx context.Context, req Request) (Result, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return Result{}, m.Err
	}

	if len(m.Results) == 0 {
		return Result{Classification: Success, Stdout: "ok"}, nil
	}

	idx := m.calls
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	m.calls++
	return m.Results[idx], nil
}
