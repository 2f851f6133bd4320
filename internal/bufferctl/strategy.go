package bufferctl

import (
	"log/slog"
)

// fullBufferHysteresisSeconds is the margin by which target must exceed
// buffered before a FULL strategy drops back to FILLING; without it a
// buffer sitting a few milliseconds under target would flap downloads on
// and off every update.
const fullBufferHysteresisSeconds = 0.5

// strategyKind tags which concrete strategy a value is, standing in for
// a dynamic type check: createOrChangeStrategyIfRequired needs to know
// "is the current strategy already time-based" without resorting to a
// type switch on every call.
type strategyKind int

const (
	strategyKindByteBased strategyKind = iota
	strategyKindTimeBased
)

// strategy is the behaviour a buffer control strategy must implement.
// Both concrete strategies are driven entirely through these five
// entry points; the Master never inspects strategy-internal state.
type strategy interface {
	kind() strategyKind
	state() BufferingState
	needData()
	enoughData()
	underflow()
	update(ext ExternalData, mediaType MediaType)
	notifyFragmentInject(fpts, fdts, duration float64, firstBuffer bool)
}

// byteBasedStrategy is the 2-state strategy: it only ever reacts to
// need_data/enough_data signals from the sink, with no notion of a
// buffered-duration target. update and notifyFragmentInject are no-ops.
type byteBasedStrategy struct {
	st     BufferingState
	logger *slog.Logger
}

func newByteBasedStrategy(logger *slog.Logger) *byteBasedStrategy {
	return &byteBasedStrategy{st: StateNeedsDataSignal, logger: logger}
}

func (b *byteBasedStrategy) kind() strategyKind   { return strategyKindByteBased }
func (b *byteBasedStrategy) state() BufferingState { return b.st }

func (b *byteBasedStrategy) needData() {
	if b.st == StateNeedsDataSignal {
		b.st = StateFilling
	}
}

func (b *byteBasedStrategy) enoughData() {
	if b.st != StateNeedsDataSignal {
		b.st = StateNeedsDataSignal
	}
}

// underflow has no effect for the byte-based strategy; the base
// behaviour is a no-op, overridden only by the time-based strategy.
func (b *byteBasedStrategy) underflow() {}

func (b *byteBasedStrategy) update(ExternalData, MediaType) {}

func (b *byteBasedStrategy) notifyFragmentInject(float64, float64, float64, bool) {}

// timeBasedStrategy is the 3-state strategy: FILLING additionally
// transitions to FULL once the injected-minus-elapsed buffered duration
// reaches the external target, and back to FILLING once it drains.
// Built on top of byteBasedStrategy's need_data/enough_data handling,
// which it delegates to for the NEEDS_DATA_SIGNAL <-> FILLING edge.
type timeBasedStrategy struct {
	byteBasedStrategy

	injectedStart    float64
	injectedEnd      float64
	injectedStartSet bool
}

func newTimeBasedStrategy(logger *slog.Logger) *timeBasedStrategy {
	return &timeBasedStrategy{byteBasedStrategy: byteBasedStrategy{st: StateNeedsDataSignal, logger: logger}}
}

func (t *timeBasedStrategy) kind() strategyKind { return strategyKindTimeBased }

// enoughData falls through to the byte-based transition, then resets
// the injected-seconds tracking so the next fill cycle starts clean.
func (t *timeBasedStrategy) enoughData() {
	t.byteBasedStrategy.enoughData()
	t.restartInjectedSecondsCount()
}

// underflow forces the strategy back into FILLING and resets the
// injected-seconds tracking, regardless of current state.
func (t *timeBasedStrategy) underflow() {
	t.st = StateFilling
	t.restartInjectedSecondsCount()
}

func (t *timeBasedStrategy) restartInjectedSecondsCount() {
	t.injectedStartSet = false
	t.injectedStart = 0
	t.injectedEnd = 0
}

// getInjectedSeconds deliberately excludes the duration of the most
// recently injected fragment: it measures the span between the first
// and most recent fragment's decode timestamps, which underestimates
// the true injected duration by roughly one fragment. This bias is
// intentional upstream — it keeps the buffered-seconds estimate
// conservative rather than risking an early FULL transition.
func (t *timeBasedStrategy) getInjectedSeconds() float64 {
	d := t.injectedEnd - t.injectedStart
	if d < 0 {
		return -d
	}
	return d
}

// notifyFragmentInject measures injected time by decode timestamp only:
// fpts and duration are ignored, so the last fragment's duration is not
// counted. For content with negative composition offsets (B-frame-heavy
// streams) the fdts range differs from the fpts range; fdts is used
// regardless.
func (t *timeBasedStrategy) notifyFragmentInject(fpts, fdts, duration float64, firstBuffer bool) {
	_ = fpts
	_ = duration
	t.injectedEnd = fdts
	if firstBuffer || !t.injectedStartSet {
		t.injectedStart = fdts
		t.injectedStartSet = true
	}
}

// update recomputes the buffered-seconds estimate against the external
// target and drives the FILLING <-> FULL edge. NEEDS_DATA_SIGNAL is
// left untouched; only needData()/enoughData() leave that state.
func (t *timeBasedStrategy) update(ext ExternalData, mediaType MediaType) {
	if t.st == StateNeedsDataSignal {
		return
	}
	if !ext.Extra.StreamReady {
		return
	}

	elapsedUnlimited := ext.Extra.ElapsedSeconds
	injected := t.getInjectedSeconds()

	elapsed := injected
	if elapsedUnlimited < injected {
		elapsed = elapsedUnlimited
	}
	buffered := injected - elapsed

	target := ext.TimeBasedBufferSeconds

	// The clip above applies to every track; only video (or any track
	// while the playback rate is non-zero) logs the clipping case; a paused audio/subtitle track legitimately stalls
	// its elapsed time without that meaning anything is wrong.
	if (elapsed+1) < elapsedUnlimited && (mediaType == MediaTypeVideo || ext.Rate != 0) {
		if t.logger != nil {
			t.logger.Warn("elapsed seconds clipped to injected seconds",
				slog.Float64("elapsed_unlimited", elapsedUnlimited),
				slog.Float64("elapsed_clipped", elapsed),
				slog.Float64("injected", injected),
			)
		}
	}

	switch t.st {
	case StateFull:
		if ext.Extra.GstWaitingForData || (target-buffered) > fullBufferHysteresisSeconds {
			t.st = StateFilling
		}
	case StateFilling:
		if buffered >= target && !ext.Extra.GstWaitingForData {
			t.st = StateFull
		}
	}
}
