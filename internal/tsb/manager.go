package tsb

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// Config configures a Manager.
type Config struct {
	// MaxDurationSeconds is the retention window per track. <= 0 means
	// unbounded (limited only by available memory/disk via diskslice's
	// spill threshold).
	MaxDurationSeconds float64
}

// DefaultConfig returns a 30-minute retention window, a reasonable
// default time-shift depth for live linear content.
func DefaultConfig() Config {
	return Config{MaxDurationSeconds: 30 * 60}
}

// Manager implements the TSB Session Manager contract (§6.6): per-track
// fragment storage, sequential reader vending, and ad reservation/
// placement bookkeeping for server-side ad insertion within the
// recording.
//
// Grounded on the teacher's CyclicBuffer (internal/relay/cyclic_buffer.go):
// same mutex-guarded-slice-plus-notify-channel shape, generalized from an
// HTTP multi-client byte ring buffer to a single-reader-per-track,
// duration-addressed fragment store.
type Manager struct {
	mu          sync.Mutex
	cfg         Config
	initialized bool
	tracks      map[bufferctl.MediaType]*trackStore
	readers     map[bufferctl.MediaType]*Reader
	ads         *adState
}

// NewManager creates a Manager with one store and reader per media type.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		tracks:  make(map[bufferctl.MediaType]*trackStore),
		readers: make(map[bufferctl.MediaType]*Reader),
		ads:     newAdState(),
	}
	for _, mt := range allMediaTypes {
		ts, err := newTrackStore(fmt.Sprintf("tsb-%s", mt), cfg.MaxDurationSeconds)
		if err != nil {
			return nil, err
		}
		m.tracks[mt] = ts
		m.readers[mt] = newReader(ts, mt)
	}
	return m, nil
}

// Init marks the manager ready to accept writes/reads. Idempotent.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// Flush clears every track's store, used on teardown and on a
// preferred-track change while in TSB mode (§4.5) so new selections are
// served from this point forward.
func (m *Manager) Flush() {
	m.mu.Lock()
	tracks := make([]*trackStore, 0, len(m.tracks))
	for _, ts := range m.tracks {
		tracks = append(tracks, ts)
	}
	readers := make([]*Reader, 0, len(m.readers))
	for _, r := range m.readers {
		readers = append(readers, r)
	}
	m.mu.Unlock()

	for _, ts := range tracks {
		ts.Flush()
	}
	// Sequence numbers restart at 1 after a flush; rewind every cursor so
	// the first fragment written afterwards is the next one read.
	for _, r := range readers {
		r.Seek(0)
	}
}

// Close releases every track store's backing resources. Not part of the
// §6.6 contract; called once by the owning Session on Stop.
func (m *Manager) Close() {
	m.mu.Lock()
	tracks := make([]*trackStore, 0, len(m.tracks))
	for _, ts := range m.tracks {
		tracks = append(tracks, ts)
	}
	m.mu.Unlock()

	for _, ts := range tracks {
		ts.Close()
	}
}

// GetTotalStoreDuration returns the live (within retention window)
// recorded duration, in seconds, for the given track.
func (m *Manager) GetTotalStoreDuration(mediaType bufferctl.MediaType) float64 {
	m.mu.Lock()
	ts, ok := m.tracks[mediaType]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return ts.TotalDuration()
}

// Write appends a fragment to the given track's store and wakes its
// reader if one is waiting. This is the store-side counterpart of
// PushNextTsbFragment; it is how fragments get into the TSB in the first
// place (the fetcher writes every segment here while recording is
// active, independent of whether anything is currently reading it back).
func (m *Manager) Write(mediaType bufferctl.MediaType, data []byte, position, duration float64, discontinuity bool, periodID string) error {
	m.mu.Lock()
	ts, ok := m.tracks[mediaType]
	reader := m.readers[mediaType]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("tsb: unknown media type %s", mediaType)
	}

	if _, err := ts.Write(data, position, duration, discontinuity, periodID); err != nil {
		return err
	}
	reader.notify()
	return nil
}

// GetTsbReader returns the sequential reader for the given track.
func (m *Manager) GetTsbReader(mediaType bufferctl.MediaType) (*Reader, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.readers[mediaType]
	return r, ok
}

// PushNextTsbFragment advances the given track's reader by one fragment
// and reports whether one was available, bounded by freeSlots (the
// number of injector slots the caller currently has room for — zero
// means the caller cannot accept a fragment right now regardless of
// what's in the store). The fragment itself is returned to the caller
// to hand to the sink; this method only governs the drive loop, since
// sink injection is outside CORE scope (§1).
func (m *Manager) PushNextTsbFragment(ctx context.Context, mediaType bufferctl.MediaType, freeSlots uint32) (Fragment, bool) {
	if freeSlots == 0 {
		return Fragment{}, false
	}
	select {
	case <-ctx.Done():
		return Fragment{}, false
	default:
	}

	reader, ok := m.GetTsbReader(mediaType)
	if !ok {
		return Fragment{}, false
	}
	return reader.Next()
}

// StartAdReservation reserves an ad break at the given period position
// on the recording timeline.
func (m *Manager) StartAdReservation(adBreakID string, periodPosition uint64, absPosition float64) bool {
	return m.ads.startReservation(adBreakID, periodPosition, absPosition)
}

// EndAdReservation closes out a previously started ad reservation.
func (m *Manager) EndAdReservation(adBreakID string, periodPosition uint64, absPosition float64) bool {
	return m.ads.endReservation(adBreakID, periodPosition, absPosition)
}

// StartAdPlacement records that a specific ad creative has begun
// playback within a reserved break.
func (m *Manager) StartAdPlacement(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool {
	return m.ads.startPlacement(adID, relativePosition, absPosition, duration, offset)
}

// EndAdPlacement marks an ad placement as having completed normally.
func (m *Manager) EndAdPlacement(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool {
	return m.ads.endPlacement(adID, relativePosition, absPosition, duration, offset, false)
}

// EndAdPlacementWithError marks an ad placement as having ended early
// due to an error (e.g. creative download failure).
func (m *Manager) EndAdPlacementWithError(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool {
	return m.ads.endPlacement(adID, relativePosition, absPosition, duration, offset, true)
}

// ShiftFutureAdEvents discards any ad reservation that was started but
// never ended, since a seek or discontinuity has invalidated the
// position it was reserved against (§6.6).
func (m *Manager) ShiftFutureAdEvents() {
	m.ads.shiftFutureEvents()
}
