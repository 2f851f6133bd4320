// Package bufferctl implements the dual-strategy (byte-based, time-based)
// buffer control state machine that regulates per-track download pace by
// observing sink back-pressure signals (need_data, enough_data, underflow)
// and, for the time-based strategy, the duration of content already
// injected into the sink versus a configured target buffer duration.
package bufferctl

import "fmt"

// MediaType identifies which track a Buffer Control Master governs.
type MediaType int

// Media types, mirroring the track kinds a Session owns one Buffer
// Control Master per.
const (
	MediaTypeVideo MediaType = iota
	MediaTypeAudio
	MediaTypeSubtitle
	MediaTypeAuxAudio
)

// String returns a human-readable media type name, used in log lines.
func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAuxAudio:
		return "aux_audio"
	default:
		return fmt.Sprintf("mediatype(%d)", int(m))
	}
}

// BufferingState is the state of a buffer control strategy.
type BufferingState int

// Buffering states. NeedsDataSignal and Filling are shared by both
// strategies; Full is reached only by the time-based strategy.
const (
	// StateNeedsDataSignal: waiting for a need_data signal from the sink.
	StateNeedsDataSignal BufferingState = iota
	// StateFilling: actively building buffer up toward the target.
	StateFilling
	// StateFull: buffered duration has reached the target; waiting for it
	// to fall back under target before resuming downloads.
	StateFull
)

// String returns the state name as used in the original implementation's
// log lines, so logs stay greppable against the upstream behaviour.
func (s BufferingState) String() string {
	switch s {
	case StateNeedsDataSignal:
		return "eBUFFER_NEEDS_DATA_SIGNAL"
	case StateFilling:
		return "eBUFFER_FILLING"
	case StateFull:
		return "eBUFFER_FULL"
	default:
		return "??"
	}
}

// ExtraData carries fields only needed by the time-based strategy's
// update, captured from the sink/stream-abstraction at each entry point.
type ExtraData struct {
	// StreamReady reports whether the stream abstraction has enough
	// information (e.g. a parsed manifest) for elapsed-time tracking to
	// be meaningful.
	StreamReady bool
	// GstWaitingForData reports whether the sink is blocked on a pending
	// state change and therefore cannot be trusted to honour a FULL
	// transition yet.
	GstWaitingForData bool
	// ElapsedSeconds is the sink's current playback position, track-relative.
	ElapsedSeconds float64
}

// ExternalData is the snapshot of external state captured at each Master
// entry point. Rate and ShouldBeTimeBased are always populated; Extra is
// only populated (and only consulted) when ShouldBeTimeBased is true.
type ExternalData struct {
	Rate                   float64
	TimeBasedBufferSeconds float64
	ShouldBeTimeBased      bool
	Extra                  ExtraData
}

// DownloadController is the sink-side hook a Buffer Control Master uses
// to actually pause/resume fetcher activity for its track. Implemented by
// the fetcher/session glue; never by bufferctl itself.
type DownloadController interface {
	ResumeTrackDownloads(mediaType MediaType)
	StopTrackDownloads(mediaType MediaType)
}
