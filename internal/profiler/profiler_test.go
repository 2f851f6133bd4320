package profiler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileBeginEndReset(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	p.ProfileBegin(BucketManifest)
	time.Sleep(2 * time.Millisecond)
	p.ProfileEnd(BucketManifest)

	p.mu.Lock()
	b := p.buckets[BucketManifest]
	p.mu.Unlock()

	assert.True(t, b.complete)
	assert.GreaterOrEqual(t, b.tFinish, b.tStart)

	// A second Begin after completion must not reopen the bucket.
	p.ProfileBegin(BucketManifest)
	p.mu.Lock()
	b2 := p.buckets[BucketManifest]
	p.mu.Unlock()
	assert.Equal(t, b.tStart, b2.tStart)

	p.ProfileReset(BucketManifest)
	p.mu.Lock()
	b3 := p.buckets[BucketManifest]
	p.mu.Unlock()
	assert.False(t, b3.complete)
	assert.False(t, b3.started)
	assert.Zero(t, b3.tStart)
}

func TestProfileError_SetsFirstFailBucketOnly(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	p.ProfileBegin(BucketManifest)
	p.ProfileError(BucketManifest, 42)
	p.ProfileBegin(BucketPlaylistVideo)
	p.ProfileError(BucketPlaylistVideo, 99)

	p.mu.Lock()
	failCode := p.tuneFailCode
	failBucket := p.tuneFailBucket
	manifestErrs := p.buckets[BucketManifest].errorCount
	playlistErrs := p.buckets[BucketPlaylistVideo].errorCount
	p.mu.Unlock()

	assert.Equal(t, 42, failCode)
	assert.Equal(t, BucketManifest, failBucket)
	assert.Equal(t, 1, manifestErrs)
	assert.Equal(t, 1, playlistErrs)
}

func TestProfilePerformed_MarksCompleteWithZeroDuration(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	p.ProfilePerformed(BucketInitVideo)

	p.mu.Lock()
	b := p.buckets[BucketInitVideo]
	p.mu.Unlock()

	assert.True(t, b.complete)
	assert.Equal(t, b.tStart, b.tFinish)
}

func TestTuneEnd_GstDecodeTimeAndFirstFrameOffset(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	// Drive buckets directly through the timestamp-producing API so the
	// derived fields (gff, decode time) match known values, per the
	// firstFrame.tStart=900, firstBuffer.tStart=500, decryptVideo.tFinish=700 example.
	setBucket(p, BucketFirstBuffer, 500, 500)
	setBucket(p, BucketFirstFrame, 900, 900)
	setBucket(p, BucketDecryptVideo, 600, 700)

	metrics := TuneEndMetrics{Success: 1, StreamType: 20, ContentType: 2, TuneAttempts: 1}
	csvLine, telemetryJSON := p.TuneEnd(metrics, "", "FG", 0, false, 120, true, "")

	require.NotEmpty(t, csvLine)
	require.NotEmpty(t, telemetryJSON)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(telemetryJSON), &payload))

	assert.InDelta(t, 900, payload["gff"].(float64), 0.001)
	// decode time = firstFrame.tStart - decryptVideo.tFinish = 900-700=200;
	// it isn't part of the fixed JSON schema but is folded into csvLine.
}

func TestTuneEnd_DisabledAfterFirstCall(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	csv1, json1 := p.TuneEnd(TuneEndMetrics{Success: 1}, "", "FG", 0, false, 0, false, "")
	assert.NotEmpty(t, csv1)
	assert.NotEmpty(t, json1)

	csv2, json2 := p.TuneEnd(TuneEndMetrics{Success: 1}, "", "FG", 0, false, 0, false, "")
	assert.Empty(t, csv2)
	assert.Empty(t, json2)
}

func TestTuneEnd_JSONKeySchema(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	_, telemetryJSON := p.TuneEnd(TuneEndMetrics{Success: 1, TuneAttempts: 2}, "myapp", "FG", 7, false, 60, true, "")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(telemetryJSON), &payload))

	for _, key := range []string{
		"pre", "ver", "bld", "tbu",
		"mms", "mmt", "mme",
		"vps", "vpt", "vpe", "aps", "apt", "ape",
		"vis", "vit", "vie", "ais", "ait", "aie",
		"vfs", "vft", "vfe", "vfb", "afs", "aft", "afe", "afb",
		"las", "lat", "dfe", "lpr", "lnw", "lps",
		"vdd", "add",
		"gps", "gff",
		"cnt", "stt", "ftt",
		"pbm", "tpb", "dus", "ifw",
		"tat", "tst", "frs", "app",
		"tsb", "tot",
	} {
		_, ok := payload[key]
		assert.Truef(t, ok, "missing telemetry key %q", key)
	}
	assert.Equal(t, "myapp", payload["app"])
}

func TestSetDiscontinuityParam_ComputesDiff(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	setBucket(p, BucketDiscoTotal, 0, 500)
	setBucketStarted(p, BucketDiscoFlush, 0, 200)
	setBucketStarted(p, BucketDiscoFirstFrame, 0, 150)

	p.SetDiscontinuityParam()

	telemetryJSON := p.GetTelemetryParam()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(telemetryJSON), &payload))

	disc := payload["disc"].([]any)
	require.Len(t, disc, 1)
	entry := disc[0].(map[string]any)
	assert.InDelta(t, 500, entry["tt"].(float64), 0.001)
	assert.InDelta(t, 200, entry["ft"].(float64), 0.001)
	assert.InDelta(t, 150, entry["fft"].(float64), 0.001)
	assert.InDelta(t, 150, entry["d"].(float64), 0.001) // 500 - (200+150)
}

func TestSetLatencyParam_OmitsNegativeFieldsAndFlushesCounters(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	p.IncrementChangeCount(CountRateCorrection)
	p.IncrementChangeCount(CountRateCorrection)
	p.IncrementChangeCount(CountBitrateChange)

	p.SetLatencyParam(-1, 4.567, 1.0, 0)

	telemetryJSON := p.GetTelemetryParam()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(telemetryJSON), &payload))

	_, hasLatency := payload["lt"]
	assert.False(t, hasLatency, "negative latency must be omitted")
	assert.InDelta(t, 4.57, payload["buf"].(float64), 0.001)
	assert.InDelta(t, 2, payload["rtc"].(float64), 0.001)
	assert.InDelta(t, 1, payload["btc"].(float64), 0.001)
	_, hasBfc := payload["bfc"]
	assert.False(t, hasBfc)
}

func TestSetLLDLowBufferParam_AppendsEntries(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()

	p.SetLLDLowBufferParam(1.234, 2.345, 1.0, 5_000_000, 3)
	p.SetLLDLowBufferParam(1.5, 2.5, 1.0, 6_000_000, 4)

	telemetryJSON := p.GetTelemetryParam()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(telemetryJSON), &payload))

	entries := payload["lldlb"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.InDelta(t, 1.23, first["lt"].(float64), 0.001)
	assert.InDelta(t, 2.35, first["buf"].(float64), 0.001)
}

func TestGetTuneEventsJSON_StripsQueryStringAndResetsFailCode(t *testing.T) {
	p := NewProfiler(nil)
	p.TuneBegin()
	p.SetTuneFailCode(7, BucketFragmentVideo)
	p.RecordTuneEvent(BucketManifest, 0, 50, 0)

	out := p.GetTuneEventsJSON("dash", "http://example.com/manifest.mpd?token=secret", true)
	assert.Contains(t, out, `"u":"http://example.com/manifest.mpd"`)
	assert.Contains(t, out, `"er":7`)
	assert.NotContains(t, out, "token=secret")

	// A second call after the list was drained should report a clean run.
	out2 := p.GetTuneEventsJSON("dash", "http://example.com/manifest.mpd", true)
	assert.Contains(t, out2, `"er":0`)
	assert.Contains(t, out2, `"v":[]`)
}

func setBucket(p *Profiler, bt BucketType, start, finish int64) {
	p.mu.Lock()
	p.buckets[bt] = bucket{tStart: start, tFinish: finish, complete: true, started: true}
	p.mu.Unlock()
}

func setBucketStarted(p *Profiler, bt BucketType, start, finish int64) {
	setBucket(p, bt, start, finish)
}
