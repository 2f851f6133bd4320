package tune

import "log/slog"

// NotifyEOSReached handles an end-of-stream signal from the sink.
// Normal (rate == 1.0) EOS, and EOS on VOD content, are left entirely
// to the caller (end of asset, not handled here). Only trick-play EOS
// on live content is special-cased: reaching EOS while scrubbing means
// hitting the edge of the live trick-play window rather than the end
// of the asset.
func (s *Session) NotifyEOSReached() {
	s.mu.Lock()
	rate := s.rate
	isLive := s.stream != nil && s.stream.IsLive()
	s.mu.Unlock()

	if rate == 1.0 || !isLive {
		return
	}

	if rate > 1.0 {
		s.forwardTrickPlayEOS()
		return
	}
	s.backwardTrickPlayEOS()
}

// forwardTrickPlayEOS treats EOS while fast-forwarding as the forward
// boundary of the trick-play window: snap to live and announce the rate
// change back to normal speed.
func (s *Session) forwardTrickPlayEOS() {
	s.logger.Info("EOS at forward trick-play boundary, seeking to live")

	s.mu.Lock()
	onSpeedChanged := s.onSpeedChanged
	s.mu.Unlock()
	if onSpeedChanged != nil {
		onSpeedChanged(1.0)
	}

	if err := s.TuneHelper(TuneTypeSeekToLive, s.urlSnapshot(), 0, false); err != nil {
		s.logger.Error("seek-to-live after EOS failed", slog.String("error", err.Error()))
	}
}

// backwardTrickPlayEOS treats EOS while rewinding as the backward
// boundary of the trick-play window: seek to (liveEdge - liveOffset)
// and continue playback from there at the current rate.
func (s *Session) backwardTrickPlayEOS() {
	s.mu.Lock()
	var liveEdge, liveOffset float64
	if s.stream != nil {
		liveEdge = s.stream.LiveEdge()
		liveOffset = s.stream.LiveOffset()
	}
	url := s.url
	s.mu.Unlock()

	s.logger.Info("EOS at backward trick-play boundary, seeking",
		slog.Float64("live_edge", liveEdge), slog.Float64("live_offset", liveOffset))

	if err := s.TuneHelper(TuneTypeSeek, url, liveEdge-liveOffset, false); err != nil {
		s.logger.Error("seek after EOS failed", slog.String("error", err.Error()))
	}
}
