package tune

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/profiler"
	"github.com/jmylchreest/aampcore/internal/taskrunner"
)

func TestMonitorTick_SamplesLiveOffsetAndBufferIntoProfiler(t *testing.T) {
	tasks := taskrunner.NewRunner(nil)
	t.Cleanup(tasks.Stop)

	prof := profiler.NewProfiler(nil)
	prof.TuneBegin()

	stream := &fakeStream{live: true, liveEdge: 10, liveOffset: 3.5}
	sink := &fakeSink{}
	factory := func(format Format, seekPosition, rate float64) (StreamAbstraction, error) {
		return stream, nil
	}
	s := NewSession(
		[]bufferctl.MediaType{bufferctl.MediaTypeVideo, bufferctl.MediaTypeAudio},
		factory, sink, nil, prof, nil, tasks, nil,
	)
	t.Cleanup(s.Stop)

	require.NoError(t, s.TuneHelper(TuneTypeNewNormal, "https://example.test/live.mpd", 0, false))

	s.monitorTick()

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(prof.GetTelemetryParam()), &payload))
	assert.InDelta(t, 3.5, payload["lt"], 0.01)
	assert.InDelta(t, 0, payload["buf"], 0.01)
}

func TestMonitorTick_LogsWhilePaused(t *testing.T) {
	tasks := taskrunner.NewRunner(nil)
	t.Cleanup(tasks.Stop)

	s := newTestSession(t, &fakeStream{}, &fakeSink{}, nil)
	s.SetRate(RatePause)

	assert.NotPanics(t, func() { s.monitorTick() })
	assert.Equal(t, StatePaused, s.State())
}

func TestMonitor_StartedOnNewSessionAndStoppedByStop(t *testing.T) {
	tasks := taskrunner.NewRunner(nil)
	t.Cleanup(tasks.Stop)

	s := NewSession(
		[]bufferctl.MediaType{bufferctl.MediaTypeVideo},
		func(Format, float64, float64) (StreamAbstraction, error) { return &fakeStream{}, nil },
		&fakeSink{}, nil, nil, nil, tasks, nil,
	)
	require.True(t, s.monitor.Running())

	s.Stop()
	assert.False(t, s.monitor.Running())

	// Stop is idempotent even after the monitor already stopped.
	s.Stop()
	time.Sleep(5 * time.Millisecond)
}
