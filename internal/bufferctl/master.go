package bufferctl

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Master is the per-track Buffer Control Master: it owns exactly one
// active strategy (byte-based or time-based, swapped in as the external
// target changes), and turns the strategy's state into a download
// pause/resume decision for the given DownloadController.
//
// Every public entry point except IsBufferFull acquires mu for the
// duration of the strategy call; IsBufferFull reads downloadsEnabled
// directly so a high-frequency poller never contends with the state
// machine.
type Master struct {
	mu                 sync.Mutex
	mediaType          MediaType
	strategy           strategy
	teardownInProgress atomic.Bool
	downloadsEnabled   atomic.Bool
	logger             *slog.Logger
}

// NewMaster creates a Buffer Control Master for the given track. Downloads
// start enabled; the first NeedData/EnoughData/Update call selects the
// initial strategy.
func NewMaster(mediaType MediaType, logger *slog.Logger) *Master {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Master{
		mediaType: mediaType,
		logger:    logger.With(slog.String("component", "bufferctl"), slog.String("media_type", mediaType.String())),
	}
	m.downloadsEnabled.Store(true)
	return m
}

// MediaType returns the track this Master governs.
func (m *Master) MediaType() MediaType { return m.mediaType }

// IsBufferFull reports whether downloads are currently paused. It does
// not take mu: downloadsEnabled is the one piece of state callers are
// expected to poll at high frequency.
func (m *Master) IsBufferFull() bool {
	return !m.downloadsEnabled.Load()
}

// createOrChangeStrategyIfRequired swaps in a new strategy whenever the
// external target kind (time-based vs byte-based) differs from the
// currently installed one. Must be called with mu held.
func (m *Master) createOrChangeStrategyIfRequired(ext ExternalData) {
	wantTimeBased := ext.ShouldBeTimeBased
	if m.strategy == nil {
		if wantTimeBased {
			m.strategy = newTimeBasedStrategy(m.logger)
		} else {
			m.strategy = newByteBasedStrategy(m.logger)
		}
		return
	}
	if wantTimeBased && m.strategy.kind() != strategyKindTimeBased {
		m.strategy = newTimeBasedStrategy(m.logger)
		return
	}
	if !wantTimeBased && m.strategy.kind() != strategyKindByteBased {
		m.strategy = newByteBasedStrategy(m.logger)
	}
}

// safeCall runs fn and swallows any panic, logging it instead. The
// upstream implementation wraps every strategy call in a try/catch so a
// single track's buffering bug can't bring down playback of the other
// tracks; panic/recover is the Go equivalent for the same guarantee.
func (m *Master) safeCall(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("buffer control operation panicked, ignoring", slog.String("op", op), slog.Any("panic", r))
		}
	}()
	fn()
}

// NeedData handles a sink need_data signal. During teardown the
// strategy is bypassed entirely and downloads are force-enabled, so a
// track that is being torn down never starves a concurrent flush.
func (m *Master) NeedData(ext ExternalData, dc DownloadController) {
	m.safeCall("need_data", func() {
		m.mu.Lock()
		if m.teardownInProgress.Load() {
			m.downloadsEnabled.Store(true)
		} else {
			m.createOrChangeStrategyIfRequired(ext)
			m.strategy.needData()
			m.downloadsEnabled.Store(m.strategy.state() == StateFilling)
		}
		m.mu.Unlock()
	})
	m.actionDownloads(dc)
}

// EnoughData handles a sink enough_data signal.
func (m *Master) EnoughData(ext ExternalData, dc DownloadController) {
	m.safeCall("enough_data", func() {
		m.mu.Lock()
		if m.teardownInProgress.Load() {
			m.downloadsEnabled.Store(false)
		} else {
			m.createOrChangeStrategyIfRequired(ext)
			m.strategy.enoughData()
			m.downloadsEnabled.Store(m.strategy.state() == StateFilling)
		}
		m.mu.Unlock()
	})
	m.actionDownloads(dc)
}

// Update re-evaluates the installed strategy against the current
// external snapshot; only the time-based strategy does anything here.
func (m *Master) Update(ext ExternalData, dc DownloadController) {
	m.safeCall("update", func() {
		m.mu.Lock()
		if !m.teardownInProgress.Load() {
			m.createOrChangeStrategyIfRequired(ext)
			m.strategy.update(ext, m.mediaType)
			m.downloadsEnabled.Store(m.strategy.state() == StateFilling)
		}
		m.mu.Unlock()
	})
	m.actionDownloads(dc)
}

// NotifyFragmentInject records a fragment's decode timestamp for the
// time-based strategy's injected-seconds accounting. No-op for the
// byte-based strategy and while tearing down.
func (m *Master) NotifyFragmentInject(fpts, fdts, duration float64, firstBuffer bool) {
	m.safeCall("notify_fragment_inject", func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.teardownInProgress.Load() || m.strategy == nil {
			return
		}
		m.strategy.notifyFragmentInject(fpts, fdts, duration, firstBuffer)
	})
}

// Underflow handles a sink underflow/starvation signal. Unlike the
// other entry points it has no teardown bypass and never toggles
// downloadsEnabled itself — the next NeedData/Update call does that;
// Underflow only resets the strategy's internal notion of progress.
func (m *Master) Underflow() {
	m.safeCall("underflow", func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.strategy != nil {
			m.strategy.underflow()
		}
	})
}

// actionDownloads applies the current downloadsEnabled decision to the
// given controller. Called outside mu, mirroring the upstream pattern
// of resolving the side effect only after the lock is released.
func (m *Master) actionDownloads(dc DownloadController) {
	if dc == nil {
		return
	}
	if m.downloadsEnabled.Load() {
		dc.ResumeTrackDownloads(m.mediaType)
	} else {
		dc.StopTrackDownloads(m.mediaType)
	}
}

// TeardownStart marks the Master as tearing down; subsequent NeedData/
// EnoughData calls bypass the strategy: NeedData forces downloads on so
// the track can drain without starving, and EnoughData forces them off.
func (m *Master) TeardownStart() {
	m.mu.Lock()
	m.teardownInProgress.Store(true)
	m.mu.Unlock()
}

// TeardownEnd stops downloads, discards the installed strategy, and
// clears the teardown flag, readying the Master for reuse.
func (m *Master) TeardownEnd(dc DownloadController) {
	m.mu.Lock()
	m.downloadsEnabled.Store(false)
	m.strategy = nil
	m.teardownInProgress.Store(false)
	m.mu.Unlock()
	m.actionDownloads(dc)
}

// Flush discards the installed strategy without touching the teardown
// flag; the next entry point recreates one from scratch.
func (m *Master) Flush() {
	m.mu.Lock()
	m.strategy = nil
	m.mu.Unlock()
}
