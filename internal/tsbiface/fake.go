package tsbiface

import (
	"context"
	"sync"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/tsb"
)

// Fake is a lightweight in-memory Manager used by tests that don't need
// internal/tsb's disk-spill storage — a plain per-track slice is enough
// to exercise calling code.
type Fake struct {
	mu           sync.Mutex
	durations    map[bufferctl.MediaType]float64
	fragments    map[bufferctl.MediaType][]tsb.Fragment
	cursor       map[bufferctl.MediaType]int
	reservations map[string]bool
	placements   map[string]bool
}

func NewFake() *Fake {
	return &Fake{
		durations:    make(map[bufferctl.MediaType]float64),
		fragments:    make(map[bufferctl.MediaType][]tsb.Fragment),
		cursor:       make(map[bufferctl.MediaType]int),
		reservations: make(map[string]bool),
		placements:   make(map[string]bool),
	}
}

func (f *Fake) Init() error { return nil }

func (f *Fake) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations = make(map[bufferctl.MediaType]float64)
	f.fragments = make(map[bufferctl.MediaType][]tsb.Fragment)
	f.cursor = make(map[bufferctl.MediaType]int)
}

func (f *Fake) GetTotalStoreDuration(mediaType bufferctl.MediaType) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.durations[mediaType]
}

func (f *Fake) Write(mediaType bufferctl.MediaType, data []byte, position, duration float64, discontinuity bool, periodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := uint64(len(f.fragments[mediaType]) + 1)
	f.fragments[mediaType] = append(f.fragments[mediaType], tsb.Fragment{
		Sequence:      seq,
		Data:          data,
		Position:      position,
		Duration:      duration,
		Discontinuity: discontinuity,
		PeriodID:      periodID,
	})
	f.durations[mediaType] += duration
	return nil
}

func (f *Fake) PushNextTsbFragment(_ context.Context, mediaType bufferctl.MediaType, freeSlots uint32) (tsb.Fragment, bool) {
	if freeSlots == 0 {
		return tsb.Fragment{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.cursor[mediaType]
	frags := f.fragments[mediaType]
	if idx >= len(frags) {
		return tsb.Fragment{}, false
	}
	f.cursor[mediaType] = idx + 1
	return frags[idx], true
}

func (f *Fake) StartAdReservation(adBreakID string, _ uint64, _ float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reservations[adBreakID] {
		return false
	}
	f.reservations[adBreakID] = true
	return true
}

func (f *Fake) EndAdReservation(adBreakID string, _ uint64, _ float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.reservations[adBreakID] {
		return false
	}
	delete(f.reservations, adBreakID)
	return true
}

func (f *Fake) StartAdPlacement(adID string, _ uint32, _, _ float64, _ uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placements[adID] {
		return false
	}
	f.placements[adID] = true
	return true
}

func (f *Fake) EndAdPlacement(adID string, _ uint32, _, _ float64, _ uint32) bool {
	return f.endPlacement(adID)
}

func (f *Fake) EndAdPlacementWithError(adID string, _ uint32, _, _ float64, _ uint32) bool {
	return f.endPlacement(adID)
}

func (f *Fake) endPlacement(adID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.placements[adID] {
		return false
	}
	delete(f.placements, adID)
	return true
}

func (f *Fake) ShiftFutureAdEvents() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = make(map[string]bool)
}

var _ Manager = (*Fake)(nil)
