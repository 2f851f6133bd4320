// Package sink defines the Stream-Sink capability set (§6.2) the core
// consumes but never implements — the concrete GStreamer pipeline is an
// external collaborator, explicitly out of scope (§1 Non-goals). This
// package only carries the interface and an in-memory fake used by
// tests elsewhere in this module.
package sink

import (
	"sync"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// Signal is one of the sink-originated events the core reacts to.
type Signal int

const (
	SignalNeedData Signal = iota
	SignalEnoughData
	SignalUnderflow
	SignalFirstFrame
	SignalEOS
)

func (s Signal) String() string {
	switch s {
	case SignalNeedData:
		return "need_data"
	case SignalEnoughData:
		return "enough_data"
	case SignalUnderflow:
		return "underflow"
	case SignalFirstFrame:
		return "first-frame"
	case SignalEOS:
		return "eos"
	default:
		return "unknown"
	}
}

// SignalHandler receives a sink-originated signal for a given track.
type SignalHandler func(mediaType bufferctl.MediaType, signal Signal)

// Sink is the full §6.2 capability set consumed by the core.
type Sink interface {
	Configure(formats ...string) error
	Flush(position, rate float64, shouldTearDown bool)
	Stop(keepLastFrame bool)
	Pause(enable, forceStop bool)
	SetVideoRectangle(x, y, w, h int)
	SetVideoZoom(enable bool)
	SetVideoMute(mute bool)
	SetAudioVolume(percent int)
	SetSubtitleMute(mute bool)
	SetTextStyle(styleJSON string) error
	SeekStreamSink(position, rate float64)
	SetPauseOnStartPlayback(enable bool)
	GetPositionMilliseconds() int64
	GetVideoPTS() int64
	// SetSignalHandler registers the callback invoked when the sink
	// raises need_data/enough_data/underflow/first-frame/eos.
	SetSignalHandler(handler SignalHandler)
}

// FlushCall records one Flush invocation, for test assertions.
type FlushCall struct {
	Position       float64
	Rate           float64
	ShouldTearDown bool
}

// PauseCall records one Pause invocation.
type PauseCall struct {
	Enable    bool
	ForceStop bool
}

// Fake is an in-memory Sink used by tests, grounded on the teacher's
// fake/mock pattern (hand-written stub recording every call, rather
// than a generated mock) — see original_source/test/utests/fakes.
type Fake struct {
	mu sync.Mutex

	Configured []string
	Flushes    []FlushCall
	Stops      []bool
	Pauses     []PauseCall
	Rect       [4]int
	VideoZoom  bool
	VideoMute  bool
	Volume     int
	SubMute    bool
	TextStyle  string
	Seeks      []FlushCall
	PauseOnStart bool
	Position   int64
	VideoPTS   int64

	handler SignalHandler
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Configure(formats ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Configured = append(f.Configured, formats...)
	return nil
}

func (f *Fake) Flush(position, rate float64, shouldTearDown bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Flushes = append(f.Flushes, FlushCall{Position: position, Rate: rate, ShouldTearDown: shouldTearDown})
}

func (f *Fake) Stop(keepLastFrame bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Stops = append(f.Stops, keepLastFrame)
}

func (f *Fake) Pause(enable, forceStop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pauses = append(f.Pauses, PauseCall{Enable: enable, ForceStop: forceStop})
}

func (f *Fake) SetVideoRectangle(x, y, w, h int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rect = [4]int{x, y, w, h}
}

func (f *Fake) SetVideoZoom(enable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VideoZoom = enable
}

func (f *Fake) SetVideoMute(mute bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VideoMute = mute
}

func (f *Fake) SetAudioVolume(percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Volume = percent
}

func (f *Fake) SetSubtitleMute(mute bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubMute = mute
}

func (f *Fake) SetTextStyle(styleJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextStyle = styleJSON
	return nil
}

func (f *Fake) SeekStreamSink(position, rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Seeks = append(f.Seeks, FlushCall{Position: position, Rate: rate})
}

func (f *Fake) SetPauseOnStartPlayback(enable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PauseOnStart = enable
}

func (f *Fake) GetPositionMilliseconds() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Position
}

func (f *Fake) GetVideoPTS() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.VideoPTS
}

func (f *Fake) SetSignalHandler(handler SignalHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

// Emit simulates the sink raising a signal for the given track, used by
// tests to drive the core's reaction to need_data/underflow/etc.
func (f *Fake) Emit(mediaType bufferctl.MediaType, signal Signal) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(mediaType, signal)
	}
}

// SetPosition sets the value GetPositionMilliseconds returns, for tests.
func (f *Fake) SetPosition(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Position = ms
}

// SetVideoPTSValue sets the value GetVideoPTS returns, for tests.
func (f *Fake) SetVideoPTSValue(pts int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VideoPTS = pts
}
