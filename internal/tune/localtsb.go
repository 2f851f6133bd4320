package tune

import (
	"log/slog"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// EnterTSBPlayback transitions from live to Local TSB playback:
// injection mode switches to the TSB store and the manifest is not
// refetched. The TSB reader itself is driven elsewhere (internal/tsb);
// this only flips the flag the injectors consult.
func (s *Session) EnterTSBPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tsbInjecting = true
}

// ExitTSBPlayback transitions from TSB playback back to live
// (seek-to-live): the injection flag is cleared. A no-op if the TSB
// store is already empty, since there was nothing to clear.
func (s *Session) ExitTSBPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tsb != nil && s.tsb.GetTotalStoreDuration(bufferctl.MediaTypeVideo) == 0 {
		return
	}
	s.tsbInjecting = false
}

// IsTSBInjecting reports whether the session is currently serving from
// the Local TSB store rather than the live fetch path.
func (s *Session) IsTSBInjecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tsbInjecting
}

// OnPreferredTrackChangeInTSBMode reinitializes the TSB session
// (flushing its store) so a just-applied track preference can be served
// from this point forward. A no-op unless the session is actively
// serving from the TSB store.
func (s *Session) OnPreferredTrackChangeInTSBMode() {
	s.mu.Lock()
	tsbEnabled := s.tsbEnabled
	injecting := s.tsbInjecting
	tsb := s.tsb
	s.mu.Unlock()

	if !tsbEnabled || !injecting || tsb == nil {
		return
	}
	tsb.Flush()
	if err := tsb.Init(); err != nil {
		s.logger.Error("reinitializing TSB session after track change failed", slog.String("error", err.Error()))
	}
}

// UpdateLocalAAMPTsbInjection re-evaluates which track's injection
// state should drive the session-wide TSB flag, short-circuiting in
// video > audio > subtitle > aux-audio priority order: the first
// enabled track whose injection is on wins.
func (s *Session) UpdateLocalAAMPTsbInjection(trackInjectionOn map[bufferctl.MediaType]bool) {
	priority := []bufferctl.MediaType{
		bufferctl.MediaTypeVideo,
		bufferctl.MediaTypeAudio,
		bufferctl.MediaTypeSubtitle,
		bufferctl.MediaTypeAuxAudio,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mt := range priority {
		if s.disc.isEnabled(mt) && trackInjectionOn[mt] {
			s.tsbInjecting = true
			return
		}
	}
	s.tsbInjecting = false
}
