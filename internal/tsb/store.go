// Package tsb implements the Local Time-Shift Buffer: a player-owned
// recording of live content, organized per track (video/audio/subtitle/
// aux-audio) and addressed by duration rather than byte count, that
// permits pause/seek/trick-play within a live asset and supports ad
// reservation/placement bookkeeping for server-side ad insertion.
package tsb

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/pkg/diskslice"
)

// Fragment is one stored CMAF fragment, positioned on the asset's
// recording timeline.
type Fragment struct {
	Sequence      uint64
	Data          []byte
	Position      float64 // start time, seconds, relative to recording start
	Duration      float64 // seconds
	Discontinuity bool
	PeriodID      string
	Timestamp     time.Time
}

// trackStore holds one media type's fragment log. Fragments are appended
// in sequence order and never removed individually; the retention window
// is enforced by advancing firstLive and deducting from totalDuration,
// leaving the underlying log append-only. Storage is backed by
// diskslice.DiskSlice, which keeps fragments in memory for small/short
// recordings and transparently spills to a temp file once the estimated
// buffered size (a fixed 4096 bytes per fragment, whatever the fragment's
// real size) reaches the configured threshold — the right shape for a
// time-shift window that can span many minutes of segmented media.
type trackStore struct {
	mu            sync.RWMutex
	fragments     *diskslice.DiskSlice[Fragment]
	firstLive     int
	totalDuration float64
	maxDuration   float64
	nextSeq       uint64
}

func newTrackStore(name string, maxDuration float64) (*trackStore, error) {
	ds, err := diskslice.New[Fragment](diskslice.Options{
		MemoryThreshold:   64 * 1024 * 1024,
		EstimatedItemSize: 4096,
		Name:              name,
	})
	if err != nil {
		return nil, fmt.Errorf("tsb: creating store %q: %w", name, err)
	}
	return &trackStore{fragments: ds, maxDuration: maxDuration}, nil
}

// Write appends a fragment to the store and enforces the retention
// window, returning the sequence number assigned to it.
func (ts *trackStore) Write(data []byte, position, duration float64, discontinuity bool, periodID string) (Fragment, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.nextSeq++
	f := Fragment{
		Sequence:      ts.nextSeq,
		Data:          data,
		Position:      position,
		Duration:      duration,
		Discontinuity: discontinuity,
		PeriodID:      periodID,
		Timestamp:     time.Now(),
	}
	if err := ts.fragments.Append(f); err != nil {
		return Fragment{}, fmt.Errorf("tsb: appending fragment: %w", err)
	}
	ts.totalDuration += duration
	ts.enforceRetention()
	return f, nil
}

// enforceRetention drops fragments from the front of the live window
// until the store's live duration is back under maxDuration. Must be
// called with mu held. maxDuration <= 0 means unbounded retention.
func (ts *trackStore) enforceRetention() {
	if ts.maxDuration <= 0 {
		return
	}
	for ts.totalDuration > ts.maxDuration && ts.firstLive < ts.fragments.Len()-1 {
		f, err := ts.fragments.Get(ts.firstLive)
		if err != nil {
			break
		}
		ts.totalDuration -= f.Duration
		ts.firstLive++
	}
}

// TotalDuration returns the total duration, in seconds, currently live
// in the store (i.e. within the retention window).
func (ts *trackStore) TotalDuration() float64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.totalDuration
}

// FragmentAfter returns the first live fragment with Sequence > lastSeq,
// clamped forward to the current live window if lastSeq has fallen
// behind (the caller's read cursor was culled out from under it).
func (ts *trackStore) FragmentAfter(lastSeq uint64) (Fragment, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	idx := int(lastSeq)
	if idx < ts.firstLive {
		idx = ts.firstLive
	}
	if idx >= ts.fragments.Len() {
		return Fragment{}, false
	}
	f, err := ts.fragments.Get(idx)
	if err != nil {
		return Fragment{}, false
	}
	return *f, true
}

// Flush discards every fragment and resets the store to empty.
func (ts *trackStore) Flush() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.fragments.Close()
	ds, err := diskslice.New[Fragment](diskslice.Options{
		MemoryThreshold:   64 * 1024 * 1024,
		EstimatedItemSize: 4096,
	})
	if err == nil {
		ts.fragments = ds
	}
	ts.firstLive = 0
	ts.totalDuration = 0
	ts.nextSeq = 0
}

// Close releases the store's backing resources.
func (ts *trackStore) Close() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.fragments.Close()
}

var allMediaTypes = []bufferctl.MediaType{
	bufferctl.MediaTypeVideo,
	bufferctl.MediaTypeAudio,
	bufferctl.MediaTypeSubtitle,
	bufferctl.MediaTypeAuxAudio,
}
