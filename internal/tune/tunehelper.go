package tune

import "github.com/jmylchreest/aampcore/internal/bufferctl"

// TuneHelper is the central dispatcher for every tune/seek/retune
// request (§4.2.2).
func (s *Session) TuneHelper(tuneType TuneType, url string, seekPosition float64, reTune bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(StateInitializing)
	newTune := tuneType == TuneTypeNewNormal

	// Step 1: an existing Stream Abstraction under AAMP-TSB survives a
	// non-new-tune request — just reposition it in place.
	if s.stream != nil && s.tsbEnabled && !newTune {
		s.stream.SeekPosition(seekPosition, s.rate)
		if s.rate == RatePause {
			s.stream.ReinitializeInjection(s.rate)
		}
		s.url = url
		s.lastSeekPos = seekPosition
		s.setState(StatePrepared)
		s.setState(StateBuffering)
		return nil
	}

	// Step 2: teardown whatever Stream Abstraction currently exists.
	s.teardownStreamLocked(newTune)

	// Step 3: classify and create the new Stream Abstraction.
	format := ClassifyURL(url)
	if format == FormatUnknown {
		s.setState(StateIdle)
		return s.errorf("unknown format for url %q", url)
	}

	effectiveSeek := seekPosition - s.culledSeconds
	stream, err := s.newAbstraction(format, effectiveSeek, s.rate)
	if err != nil {
		s.setState(StateIdle)
		return s.errorf("creating stream abstraction: %w", err)
	}
	s.format = format
	s.url = url
	s.stream = stream

	// Step 4: initialize it.
	if err := stream.Init(tuneType); err != nil {
		s.stream = nil
		s.setState(StateIdle)
		return s.errorf("stream abstraction init: %w", err)
	}

	// Step 5: Local TSB injection-mode decision for live content. An
	// empty store leaves the session on the live fetch path; a
	// non-empty one switches to TSB-reader injection.
	if stream.IsLive() && s.tsbEnabled && s.tsb != nil {
		s.tsbInjecting = s.tsb.GetTotalStoreDuration(bufferctl.MediaTypeVideo) > 0
	}

	// Step 6: mandatory sink configure/flush ordering. lastSeekPos must
	// be updated before this call so Flush sees the new tune's position,
	// not whatever the previous tune left behind.
	s.lastSeekPos = seekPosition
	s.applyConfigureFlushOrder(tuneType)

	// Step 7: Prepared, then Buffering.
	s.setState(StatePrepared)
	s.setState(StateBuffering)
	return nil
}

// applyConfigureFlushOrder enforces the mandatory sink sequencing:
// Configure then Flush for a new-tune or seek-to-live; Flush, then
// Configure, then Flush again for a generic seek while AAMP-TSB is
// enabled; Configure alone otherwise.
func (s *Session) applyConfigureFlushOrder(tuneType TuneType) {
	if s.sink == nil {
		return
	}
	switch {
	case tuneType == TuneTypeNewNormal || tuneType == TuneTypeSeekToLive:
		s.sink.Configure()
		s.sink.Flush(s.lastSeekPos, s.rate, false)
	case tuneType == TuneTypeSeek && s.tsbEnabled:
		s.sink.Flush(s.lastSeekPos, s.rate, false)
		s.sink.Configure()
		s.sink.Flush(s.lastSeekPos, s.rate, false)
	default:
		s.sink.Configure()
	}
}
