package tune

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// ScheduleRetune submits a retune task iff the session is currently
// Playing, the content is not EAS, and — for trick-play rates — the
// triggering error is specifically a GstPipelineInternal error. In
// Paused and Idle states no retune is ever scheduled. A retune already
// pending is replaced by this one, per the async scheduler's named-task
// semantics (internal/taskrunner).
func (s *Session) ScheduleRetune(errType ErrorType, mediaType bufferctl.MediaType) {
	s.mu.Lock()
	playing := s.state == StatePlaying
	rate := s.rate
	contentType := s.contentType
	s.mu.Unlock()

	if !playing {
		return
	}
	if contentType == ContentTypeEAS {
		return
	}
	if rate != 1.0 && errType != ErrorTypeGstPipelineInternal {
		return
	}

	s.logger.Info("scheduling retune",
		slog.String("media_type", mediaType.String()),
		slog.Int("error_type", int(errType)))

	s.tasks.Submit(context.Background(), RetuneTaskName, func(ctx context.Context) {
		s.runRetune(ctx)
	})
}

func (s *Session) runRetune(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	url := s.urlSnapshot()
	s.mu.Lock()
	pos := s.lastSeekPos
	s.mu.Unlock()

	if err := s.TuneHelper(TuneTypeRetune, url, pos, true); err != nil {
		s.logger.Error("retune failed", slog.String("error", err.Error()))
	}
}
