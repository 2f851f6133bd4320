package tune

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/aampcore/internal/aampconfig"
	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/monitor"
	"github.com/jmylchreest/aampcore/internal/profiler"
	"github.com/jmylchreest/aampcore/internal/taskrunner"
)

// DefaultMonitorSchedule is the Monitor thread's cron expression:
// pause-position checks and AV-sync telemetry sampling once a second.
const DefaultMonitorSchedule = "@every 1s"

// StreamAbstraction is the per-format stream handler a Session drives:
// one concrete implementation per Format (DASH/HLS/progressive) lives
// outside this package (manifest parsing and ABR are non-goals here);
// the Session only needs this narrow lifecycle surface.
type StreamAbstraction interface {
	// Init prepares the abstraction for the given tune intent. Called
	// once per TeardownStream/create cycle.
	Init(tuneType TuneType) error
	// SeekPosition repositions without recreating the abstraction, used
	// for the AAMP-TSB seamless-seek path in TuneHelper step 1.
	SeekPosition(position, rate float64)
	// ReinitializeInjection re-primes injection after a rate change
	// without a full retune, used when rate == RatePause on the
	// seamless-seek path.
	ReinitializeInjection(rate float64)
	// Stop releases the abstraction's resources. Does not touch the sink.
	Stop()
	IsLive() bool
	LiveEdge() float64
	LiveOffset() float64
}

// Sink is the narrow slice of the Stream-Sink Manager contract (§6.2)
// the tune state machine itself calls directly; everything else (video
// rectangle, volume, etc.) is caller-facing Session API, not part of
// the retune/teardown lifecycle.
type Sink interface {
	Configure()
	Flush(position, rate float64, shouldTearDown bool)
	Stop(keepLastFrame bool)
	Discontinuity(mediaType bufferctl.MediaType, suppressFlush bool) bool
}

// TSBManager is the subset of the Local TSB Session Manager contract
// (§6.6) the tune state machine consults directly.
type TSBManager interface {
	Init() error
	Flush()
	GetTotalStoreDuration(mediaType bufferctl.MediaType) float64
}

// StreamAbstractionFactory creates a StreamAbstraction for the given
// classified format and starting position/rate. The session never
// constructs format-specific abstractions itself (DASH/HLS manifest
// parsing is out of CORE scope, §1) — it only drives whatever this
// factory vends.
type StreamAbstractionFactory func(format Format, seekPosition, rate float64) (StreamAbstraction, error)

// Session is the root of the Tune / Playback State Machine: one Session
// per tuned asset, guarded by a single mutex, coordinating the current
// StreamAbstraction, the per-track Buffer Control Masters, discontinuity
// acknowledgement, and retune scheduling.
type Session struct {
	mu sync.Mutex

	ID     uuid.UUID
	logger *slog.Logger

	state       State
	rate        float64
	contentType ContentType

	url           string
	format        Format
	culledSeconds float64

	newAbstraction StreamAbstractionFactory
	stream         StreamAbstraction
	sink           Sink

	tsb                  TSBManager
	tsbEnabled           bool
	tsbInjecting         bool
	tsbSessionRequestURL string
	manifestURL          string

	teardownCount int
	stopped       bool
	lastSeekPos   float64

	bufferMasters map[bufferctl.MediaType]*bufferctl.Master

	profiler *profiler.Profiler
	cfg      *aampconfig.Store
	tasks    *taskrunner.Runner

	monitor     *monitor.Monitor
	pausedSince time.Time

	disc *discontinuityState

	preferred       PreferredTrackAttributes
	availableTracks []TrackAttributes

	reconfigPipelineOnDiscontinuity bool
	ptsRestampConfigured            bool

	onSpeedChanged func(rate float64)
}

// NewSession creates a Session for the given enabled tracks. mediaTypes
// determines both the set of Buffer Control Masters created and the
// tracks DiscontinuitySeenInAllTracks waits on.
func NewSession(
	mediaTypes []bufferctl.MediaType,
	newAbstraction StreamAbstractionFactory,
	sink Sink,
	tsb TSBManager,
	prof *profiler.Profiler,
	cfg *aampconfig.Store,
	tasks *taskrunner.Runner,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	s := &Session{
		ID:             id,
		logger:         logger.With(slog.String("component", "tune"), slog.String("session_id", id.String())),
		state:          StateIdle,
		rate:           1.0,
		newAbstraction: newAbstraction,
		sink:           sink,
		tsb:            tsb,
		bufferMasters:  make(map[bufferctl.MediaType]*bufferctl.Master),
		profiler:       prof,
		cfg:            cfg,
		tasks:          tasks,
	}
	for _, mt := range mediaTypes {
		s.bufferMasters[mt] = bufferctl.NewMaster(mt, s.logger)
	}
	s.disc = newDiscontinuityState(mediaTypes)

	s.monitor = monitor.New(DefaultMonitorSchedule, s.logger)
	s.monitor.Start(s.monitorTick)
	return s
}

// State returns the Session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rate returns the Session's current playback rate.
func (s *Session) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Format returns the classified Format of the most recently tuned URL.
func (s *Session) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// BufferMaster returns the Buffer Control Master for a track, or nil if
// that track was not enabled at session creation.
func (s *Session) BufferMaster(mediaType bufferctl.MediaType) *bufferctl.Master {
	return s.bufferMasters[mediaType]
}

// SetTrackEnabled marks a track enabled or disabled for the purposes of
// DiscontinuitySeenInAllTracks and UpdateLocalAAMPTsbInjection.
func (s *Session) SetTrackEnabled(mediaType bufferctl.MediaType, enabled bool) {
	s.disc.setEnabled(mediaType, enabled)
}

// SetContentType records the tuned asset's content type, consulted by
// ScheduleRetune to suppress retunes for EAS content.
func (s *Session) SetContentType(ct ContentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentType = ct
}

// SetTSBEnabled toggles whether AAMP-TSB is active for this session.
func (s *Session) SetTSBEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tsbEnabled = enabled
}

// SetCulledSeconds records how much of the manifest's window has been
// culled, subtracted from the caller's seek position in TuneHelper.
func (s *Session) SetCulledSeconds(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.culledSeconds = v
}

// SetManifestURLs records the canonical manifest URL and, for AAMP-TSB
// sessions, the TSB session request URL used to build a reload URL on a
// preferred-track change (§4.2.7).
func (s *Session) SetManifestURLs(manifestURL, tsbSessionRequestURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifestURL = manifestURL
	s.tsbSessionRequestURL = tsbSessionRequestURL
}

// SetOnSpeedChanged registers the caller's SpeedChanged event emitter,
// invoked by NotifyEOSReached on the forward trick-play EOS path.
func (s *Session) SetOnSpeedChanged(fn func(rate float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSpeedChanged = fn
}

// SetReconfigPipelineOnDiscontinuity configures whether a discontinuity
// always reconfigures the pipeline, consulted by ReconfigureForCodecChange.
func (s *Session) SetReconfigPipelineOnDiscontinuity(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconfigPipelineOnDiscontinuity = v
}

// SetPTSRestampConfigured marks whether PTS restamping is configured,
// which defers the codec-change reconfiguration decision (§4.2.6).
func (s *Session) SetPTSRestampConfigured(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ptsRestampConfigured = v
}

// SetRate updates the playback rate and the Playing/Paused sub-state.
// Trick-play rates (anything nonzero other than 1.0) remain Playing;
// only rate == RatePause transitions to Paused.
func (s *Session) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	if rate == RatePause {
		s.pausedSince = time.Now()
		s.setState(StatePaused)
	} else {
		s.pausedSince = time.Time{}
		if s.state != StateStopped {
			s.setState(StatePlaying)
		}
	}
}

func (s *Session) urlSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) setState(state State) {
	s.logger.Debug("tune state transition", slog.String("from", s.state.String()), slog.String("to", state.String()))
	s.state = state
}

func (s *Session) errorf(format string, args ...any) error {
	return fmt.Errorf("tune: "+format, args...)
}
