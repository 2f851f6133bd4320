package drmiface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_AcquireLicense_RecordsRequestAndReturnsScriptedResponse(t *testing.T) {
	f := NewFake()
	f.SetResponse(LicenseResponse{Handle: []byte{0x01}, SessionID: "sess-1"}, nil)

	resp, err := f.AcquireLicense(context.Background(), LicenseRequest{
		SystemID: "widevine",
		KeyIDs:   [][]byte{{0xaa}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	require.Len(t, f.Requests, 1)
	assert.Equal(t, "widevine", f.Requests[0].SystemID)
}

func TestFake_ReportFailure_RecordsFinalFailureOnce(t *testing.T) {
	f := NewFake()
	f.ReportFailure(MetaData{Failure: FailureDRMLicense, IsFinal: true, SessionID: "sess-1"})

	require.Len(t, f.Failures, 1)
	assert.True(t, f.Failures[0].IsFinal)
	assert.Equal(t, FailureDRMLicense, f.Failures[0].Failure)
}
