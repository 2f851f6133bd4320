package cmd

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/sink"
	"github.com/jmylchreest/aampcore/internal/tune"
)

// sinkAdapter narrows a *sink.Fake (the full §6.2 capability set) down
// to the tune.Sink surface the Session calls directly, and answers
// Discontinuity locally since sink.Sink has no such method — the real
// stream sink acks a discontinuity marker out of band via GStreamer pad
// probes, which this harness has no equivalent of.
type sinkAdapter struct {
	fake *sink.Fake

	mu      sync.Mutex
	suppress map[bufferctl.MediaType]bool
}

func newSinkAdapter(fake *sink.Fake) *sinkAdapter {
	return &sinkAdapter{fake: fake, suppress: make(map[bufferctl.MediaType]bool)}
}

func (a *sinkAdapter) Configure()                                   { _ = a.fake.Configure() }
func (a *sinkAdapter) Flush(position, rate float64, tearDown bool)   { a.fake.Flush(position, rate, tearDown) }
func (a *sinkAdapter) Stop(keepLastFrame bool)                      { a.fake.Stop(keepLastFrame) }
func (a *sinkAdapter) Discontinuity(mt bufferctl.MediaType, suppressFlush bool) bool {
	a.mu.Lock()
	a.suppress[mt] = suppressFlush
	a.mu.Unlock()
	return true
}

// fakeStreamAbstraction is a minimal tune.StreamAbstraction standing in
// for the real per-format (DASH/HLS/progressive) implementation, which
// lives outside CORE scope (§1). It only tracks enough state for the
// CLI harness to exercise TuneHelper's decision points.
type fakeStreamAbstraction struct {
	logger *slog.Logger

	mu       sync.Mutex
	position float64
	rate     float64
	live     bool
	liveEdge float64
	stopped  bool
}

func newFakeStreamAbstraction(logger *slog.Logger, live bool) *fakeStreamAbstraction {
	return &fakeStreamAbstraction{logger: logger, live: live, liveEdge: 0}
}

func (f *fakeStreamAbstraction) Init(tuneType tune.TuneType) error {
	f.logger.Debug("stream abstraction init", slog.String("tune_type", tuneType.String()))
	return nil
}

func (f *fakeStreamAbstraction) SeekPosition(position, rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position, f.rate = position, rate
}

func (f *fakeStreamAbstraction) ReinitializeInjection(rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
}

func (f *fakeStreamAbstraction) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeStreamAbstraction) IsLive() bool { return f.live }

func (f *fakeStreamAbstraction) LiveEdge() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveEdge
}

func (f *fakeStreamAbstraction) LiveOffset() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveEdge - f.position
}

var _ tune.StreamAbstraction = (*fakeStreamAbstraction)(nil)
var _ tune.Sink = (*sinkAdapter)(nil)
