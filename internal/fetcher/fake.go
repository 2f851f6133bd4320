package fetcher

import (
	"context"
	"sync"
)

// Fake is an in-memory Fetcher used by tests: it returns a scripted
// sequence of results, one per call, repeating the last entry once the
// script is exhausted.
type Fake struct {
	mu      sync.Mutex
	results []Result
	oks     []bool
	calls   []Request
}

// NewFake creates a Fake with no scripted results (every Download call
// fails until results are pushed via Push).
func NewFake() *Fake { return &Fake{} }

// Push appends one scripted (Result, ok) pair to be returned by the next
// Download call.
func (f *Fake) Push(result Result, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	f.oks = append(f.oks, ok)
}

// Calls returns every Request passed to Download, in order.
func (f *Fake) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Download(_ context.Context, req Request) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	if len(f.results) == 0 {
		return Result{}, false
	}
	idx := len(f.calls) - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx], f.oks[idx]
}
