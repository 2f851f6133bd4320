package isobmff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemuxMPEGTS_EmptyBufferYieldsNoStreams(t *testing.T) {
	streams, err := DemuxMPEGTS(nil)
	require.NoError(t, err)
	assert.Empty(t, streams)
}
