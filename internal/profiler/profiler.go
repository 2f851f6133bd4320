package profiler

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TuneEndMetrics carries the caller-supplied facts TuneEnd needs but the
// Profiler itself never observes directly (tune outcome, content/stream
// classification, TSB state, timed-metadata bookkeeping).
type TuneEndMetrics struct {
	Success                int
	StreamType             int
	ContentType            int
	TimedMetadataCount     int
	TimedMetadataStartTime time.Time // zero value means "no timed metadata"
	TimedMetadataDuration  int
	TuneAttempts           int
	FirstTune              bool
	FogTSBEnabled          bool
	// TotalTime is only consulted when Success <= 0: the wall-clock time
	// at which the failure/interruption was reported.
	TotalTime time.Time
}

// CountType selects which steady-state change counter IncrementChangeCount bumps.
type CountType int

// Change counter kinds, reset to zero each time SetLatencyParam flushes them.
const (
	CountRateCorrection CountType = iota
	CountBufferChange
	CountBitrateChange
)

// tuneEvent is one entry in the per-tune event list used by GetTuneEventsJSON.
type tuneEvent struct {
	id       BucketType
	start    int64
	duration int64
	result   int
}

// Profiler records bucketed phase timings for one tune at a time and
// accumulates steady-state telemetry (latency/buffer/discontinuity/LLD
// low-buffer samples) between flushes. A Session owns exactly one
// Profiler.
type Profiler struct {
	mu                  sync.Mutex
	buckets             [bucketTypeCount]bucket
	tuneStartMonotonic  time.Time
	tuneStartUTCMs      int64
	bandwidthVideoBPS   int64
	bandwidthAudioBPS   int64
	drmErrorCode        int
	enabled             bool
	tuneFailBucket      BucketType
	tuneFailCode        int
	rateCorrectionCount int
	bitrateChangeCount  int
	bufferChangeCount   int

	eventsMu   sync.Mutex
	tuneEvents []tuneEvent

	telemetryMu  sync.Mutex
	telemetry    telemetry
	lldLowBuffer bool

	logger *slog.Logger
}

// NewProfiler creates a Profiler. Call TuneBegin before recording any
// bucket to start a new tune cycle.
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		logger:         logger.With(slog.String("component", "profiler")),
		tuneFailBucket: BucketManifest,
	}
}

// elapsedMs returns the milliseconds elapsed since TuneBegin's monotonic base.
func (p *Profiler) elapsedMs() int64 {
	return time.Since(p.tuneStartMonotonic).Milliseconds()
}

// SetBandwidthBitsPerSecondVideo records the video track's intrinsic bitrate
// for inclusion in the tune-time telemetry payload.
func (p *Profiler) SetBandwidthBitsPerSecondVideo(bps int64) {
	p.mu.Lock()
	p.bandwidthVideoBPS = bps
	p.mu.Unlock()
}

// SetBandwidthBitsPerSecondAudio records the audio track's intrinsic bitrate.
func (p *Profiler) SetBandwidthBitsPerSecondAudio(bps int64) {
	p.mu.Lock()
	p.bandwidthAudioBPS = bps
	p.mu.Unlock()
}

// SetDrmErrorCode records the most recent DRM license error code.
func (p *Profiler) SetDrmErrorCode(code int) {
	p.mu.Lock()
	p.drmErrorCode = code
	p.mu.Unlock()
}

// TuneBegin zeroes all buckets, captures the monotonic/UTC tune-start
// timestamps, and enables profiling for a new tune cycle.
func (p *Profiler) TuneBegin() {
	p.mu.Lock()
	p.buckets = [bucketTypeCount]bucket{}
	p.tuneStartUTCMs = time.Now().UnixMilli()
	p.tuneStartMonotonic = time.Now()
	p.bandwidthVideoBPS = 0
	p.bandwidthAudioBPS = 0
	p.drmErrorCode = 0
	p.enabled = true
	p.tuneFailBucket = BucketManifest
	p.tuneFailCode = 0
	p.rateCorrectionCount = 0
	p.bitrateChangeCount = 0
	p.bufferChangeCount = 0
	p.mu.Unlock()

	p.eventsMu.Lock()
	p.tuneEvents = nil
	p.eventsMu.Unlock()

	p.telemetryMu.Lock()
	p.telemetry = telemetry{}
	p.lldLowBuffer = false
	p.telemetryMu.Unlock()
}

// ProfileBegin marks the start of bucket type's phase, iff no prior
// Begin has been recorded for it since the last TuneBegin/ProfileReset.
func (p *Profiler) ProfileBegin(bt BucketType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := &p.buckets[bt]
	if !b.complete && b.tStart == 0 {
		now := p.elapsedMsLocked()
		b.tStart = now
		b.tFinish = now
		b.started = true
	}
}

// elapsedMsLocked is elapsedMs but documents that it's called with mu held.
func (p *Profiler) elapsedMsLocked() int64 {
	return time.Since(p.tuneStartMonotonic).Milliseconds()
}

// ProfileError marks an error on an in-progress bucket and, if this is
// the first non-zero error code reported this tune, records it as the
// session-wide tune-failure bucket/code.
func (p *Profiler) ProfileError(bt BucketType, result int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := &p.buckets[bt]
	if !b.complete && b.started {
		p.setTuneFailCodeLocked(result, bt)
		b.errorCount++
	}
}

// ProfileEnd marks the end of bucket type's phase, iff it was started
// and not already complete.
func (p *Profiler) ProfileEnd(bt BucketType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := &p.buckets[bt]
	if !b.complete && b.started {
		b.tFinish = p.elapsedMsLocked()
		b.complete = true
	}
}

// ProfileReset clears a bucket's timestamps and flags, allowing it to
// be re-profiled within the same tune (used when a phase retries).
func (p *Profiler) ProfileReset(bt BucketType) {
	p.mu.Lock()
	p.buckets[bt] = bucket{}
	p.mu.Unlock()
}

// ProfilePerformed marks a bucket as instantaneously complete, for
// phases where only the fact they happened matters, not a duration.
func (p *Profiler) ProfilePerformed(bt BucketType) {
	p.ProfileBegin(bt)
	p.mu.Lock()
	p.buckets[bt].complete = true
	p.mu.Unlock()
}

// SetTuneFailCode records the first non-zero failure code/bucket seen
// during a tune; subsequent calls are ignored until the next TuneBegin.
func (p *Profiler) SetTuneFailCode(code int, bt BucketType) {
	p.mu.Lock()
	p.setTuneFailCodeLocked(code, bt)
	p.mu.Unlock()
}

func (p *Profiler) setTuneFailCodeLocked(code int, bt BucketType) {
	if p.tuneFailCode == 0 {
		p.logger.Info("tune fail code recorded", slog.String("bucket", bt.String()), slog.Int("code", code))
		p.tuneFailCode = code
		p.tuneFailBucket = bt
	}
}

// RecordTuneEvent appends one entry to the per-tune event list consumed
// by GetTuneEventsJSON.
func (p *Profiler) RecordTuneEvent(id BucketType, start, duration int64, result int) {
	p.eventsMu.Lock()
	p.tuneEvents = append(p.tuneEvents, tuneEvent{id: id, start: start, duration: duration, result: result})
	p.eventsMu.Unlock()
}

// GetTuneEventsJSON renders and clears the accumulated tune event list.
func (p *Profiler) GetTuneEventsJSON(streamType, url string, success bool) string {
	p.mu.Lock()
	td := p.elapsedMsLocked()
	tuneStartUTCMs := p.tuneStartUTCMs
	failBucket := p.tuneFailBucket
	failCode := p.tuneFailCode
	p.mu.Unlock()

	if i := indexOf(url, '?'); i >= 0 {
		url = url[:i]
	}

	p.eventsMu.Lock()
	events := p.tuneEvents
	p.tuneEvents = nil
	p.eventsMu.Unlock()

	p.mu.Lock()
	p.tuneFailCode = 0
	p.tuneFailBucket = BucketManifest
	p.mu.Unlock()

	successInt := 0
	if success {
		successInt = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`{"s":%d,"td":%d,"st":"%s","u":"%s","tf":{"i":%d,"er":%d},"r":%d,"v":[`,
		tuneStartUTCMs, td, streamType, url, int(failBucket), failCode, successInt))
	for i, te := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf(`{"i":%d,"b":%d,"d":%d,"o":%d}`, int(te.id), te.start, te.duration, te.result))
	}
	sb.WriteString("]}")
	return sb.String()
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
