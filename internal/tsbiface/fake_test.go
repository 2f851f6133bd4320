package tsbiface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

func TestFake_WriteThenPushNextTsbFragment(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.Write(bufferctl.MediaTypeVideo, []byte("a"), 0, 2.0, false, "p1"))
	require.NoError(t, f.Write(bufferctl.MediaTypeVideo, []byte("b"), 2.0, 2.0, false, "p1"))

	assert.Equal(t, 4.0, f.GetTotalStoreDuration(bufferctl.MediaTypeVideo))

	frag, ok := f.PushNextTsbFragment(context.Background(), bufferctl.MediaTypeVideo, 1)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), frag.Data)

	frag, ok = f.PushNextTsbFragment(context.Background(), bufferctl.MediaTypeVideo, 1)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), frag.Data)

	_, ok = f.PushNextTsbFragment(context.Background(), bufferctl.MediaTypeVideo, 1)
	assert.False(t, ok)
}

func TestFake_Flush_ClearsStoreAndCursor(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.Write(bufferctl.MediaTypeAudio, []byte("x"), 0, 1.0, false, ""))
	f.Flush()
	assert.Equal(t, 0.0, f.GetTotalStoreDuration(bufferctl.MediaTypeAudio))
	_, ok := f.PushNextTsbFragment(context.Background(), bufferctl.MediaTypeAudio, 1)
	assert.False(t, ok)
}

func TestFake_AdReservationLifecycle(t *testing.T) {
	f := NewFake()
	assert.True(t, f.StartAdReservation("b1", 0, 0))
	assert.False(t, f.StartAdReservation("b1", 0, 0))
	assert.True(t, f.EndAdReservation("b1", 0, 0))
	assert.False(t, f.EndAdReservation("b1", 0, 0))
}

func TestFake_ShiftFutureAdEvents_ClearsOpenReservations(t *testing.T) {
	f := NewFake()
	f.StartAdReservation("b1", 0, 0)
	f.ShiftFutureAdEvents()
	assert.True(t, f.StartAdReservation("b1", 0, 0), "reservation should have been cleared")
}
