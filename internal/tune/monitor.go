package tune

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// monitorTick is the Monitor thread's periodic callback (§5): it logs
// how long playback has sat paused, and samples AV-sync/buffer
// telemetry into the Profiler so GetTelemetryParam has fresh values
// between tune-time reports. Runs on its own goroutine (the cron
// scheduler's), so it takes the session lock like any other entry
// point.
func (s *Session) monitorTick() {
	s.mu.Lock()
	state := s.state
	rate := s.rate
	pausedSince := s.pausedSince
	stream := s.stream
	prof := s.profiler
	videoMaster := s.bufferMasters[bufferctl.MediaTypeVideo]
	s.mu.Unlock()

	if state == StatePaused && !pausedSince.IsZero() {
		s.logger.Debug("pause position monitor",
			slog.Duration("paused_for", time.Since(pausedSince)))
	}

	if prof == nil {
		return
	}

	latency := -1.0
	if stream != nil && stream.IsLive() {
		latency = stream.LiveOffset()
	}

	buffer := -1.0
	if videoMaster != nil {
		if videoMaster.IsBufferFull() {
			buffer = 1
		} else {
			buffer = 0
		}
	}

	prof.SetLatencyParam(latency, buffer, rate, 0)
}
