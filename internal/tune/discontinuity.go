package tune

import (
	"sync"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// discontinuityState tracks which enabled tracks have acknowledged the
// current discontinuity-tune operation, and wakes any waiter once every
// enabled track has acked (or the operation is cancelled outright).
type discontinuityState struct {
	mu      sync.Mutex
	cond    *sync.Cond
	enabled map[bufferctl.MediaType]bool
	seen    map[bufferctl.MediaType]bool
	pending bool
}

func newDiscontinuityState(mediaTypes []bufferctl.MediaType) *discontinuityState {
	d := &discontinuityState{
		enabled: make(map[bufferctl.MediaType]bool, len(mediaTypes)),
		seen:    make(map[bufferctl.MediaType]bool, len(mediaTypes)),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, mt := range mediaTypes {
		d.enabled[mt] = true
	}
	return d
}

func (d *discontinuityState) setEnabled(mt bufferctl.MediaType, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled[mt] = enabled
}

func (d *discontinuityState) isEnabled(mt bufferctl.MediaType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled[mt]
}

// begin starts a new discontinuity-tune operation, clearing every
// track's prior acknowledgement.
func (d *discontinuityState) begin() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = true
	for mt := range d.seen {
		d.seen[mt] = false
	}
}

// ack records mediaType's acknowledgement and returns whether every
// enabled track has now acknowledged, waking any waiter if so.
func (d *discontinuityState) ack(mt bufferctl.MediaType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[mt] = true
	if !d.allSeenLocked() {
		return false
	}
	d.pending = false
	d.cond.Broadcast()
	return true
}

func (d *discontinuityState) allSeenLocked() bool {
	for mt, en := range d.enabled {
		if en && !d.seen[mt] {
			return false
		}
	}
	return true
}

func (d *discontinuityState) allSeen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allSeenLocked()
}

// wait blocks until the pending discontinuity completes or is cancelled.
func (d *discontinuityState) wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending {
		d.cond.Wait()
	}
}

// unblock cancels the pending flag and wakes any waiter, used when a
// teardown/retune needs to abandon an in-flight discontinuity wait.
func (d *discontinuityState) unblock() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()
	d.cond.Broadcast()
}

func (d *discontinuityState) isPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// BeginDiscontinuity starts a new discontinuity-tune operation, clearing
// every track's prior acknowledgement so DiscontinuitySeenInAllTracks
// reflects only this operation.
func (s *Session) BeginDiscontinuity() {
	s.disc.begin()
}

// Discontinuity forwards a discontinuity marker for mediaType to the
// sink and records the track's acknowledgement if the sink accepted it.
// Returns whether the sink accepted the event; the discontinuity-tune
// operation as a whole is not complete until DiscontinuitySeenInAllTracks
// reports true.
func (s *Session) Discontinuity(mediaType bufferctl.MediaType, suppressFlush bool) bool {
	accepted := true
	if s.sink != nil {
		accepted = s.sink.Discontinuity(mediaType, suppressFlush)
	}
	if !accepted {
		return false
	}
	s.disc.ack(mediaType)
	return true
}

// DiscontinuitySeenInAllTracks reports whether every enabled track has
// acknowledged the current discontinuity-tune operation.
func (s *Session) DiscontinuitySeenInAllTracks() bool {
	return s.disc.allSeen()
}

// WaitForDiscontinuityProcessToComplete blocks until the current
// discontinuity-tune operation completes or is unblocked.
func (s *Session) WaitForDiscontinuityProcessToComplete() {
	s.disc.wait()
}

// UnblockWaitForDiscontinuityProcessToComplete wakes any caller blocked
// in WaitForDiscontinuityProcessToComplete, whether because the
// operation completed naturally or because it's being cancelled (e.g.
// a teardown started mid-discontinuity).
func (s *Session) UnblockWaitForDiscontinuityProcessToComplete() {
	s.disc.unblock()
}

// ReconfigureForCodecChange decides whether a codec change observed
// during a discontinuity should reconfigure the pipeline now. When PTS
// restamping is configured the decision is deferred: it returns true
// only when a codec change is present AND ReconfigPipelineOnDiscontinuity
// is false (restamping already handles the common case, so an explicit
// pipeline reconfigure is reserved for when that's disabled). Otherwise
// a codec change alone is sufficient.
func (s *Session) ReconfigureForCodecChange(codecChangePresent bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ptsRestampConfigured {
		return codecChangePresent && !s.reconfigPipelineOnDiscontinuity
	}
	return codecChangePresent
}
