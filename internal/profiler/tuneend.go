package profiler

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// tuneTimeVersion and tuneTimeBuild are the protocol/build markers
// carried in every tune-time payload, analogous to the upstream's
// AAMP_TUNETIME_VERSION/AAMP_VERSION constants.
const (
	tuneTimeVersion = 0
	tuneTimeBuild   = "aampcore"
)

// TuneEnd finalises the current tune: it disables further bucket
// recording, computes the derived timing fields (gstreamer decode time,
// total tune time, pre-buffer-adjusted first-buffer/first-frame
// offsets), and returns the legacy CSV line plus the JSON telemetry
// payload. Returns two empty strings if profiling was not enabled
// (TuneBegin was never called, or TuneEnd already ran for this tune).
func (p *Profiler) TuneEnd(
	metrics TuneEndMetrics,
	appName, playerActiveMode string,
	playerID int,
	playerPreBuffered bool,
	durationSeconds uint,
	interfaceWifi bool,
	failureReason string,
) (csvLine string, telemetryJSON string) {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return "", ""
	}
	p.enabled = false

	licenseAcqNWTime := p.buckets[BucketLANetwork].duration()
	tFirstFrameStart := p.buckets[BucketFirstFrame].tStart
	tDecryptVideoFinish := p.buckets[BucketDecryptVideo].tFinish
	tFirstBufferStart := p.buckets[BucketFirstBuffer].tStart
	tPreBufferStart := p.buckets[BucketPlayerPreBuffered].tStart

	decodeBase := tDecryptVideoFinish
	if decodeBase == 0 {
		decodeBase = tFirstBufferStart
	}
	tDecode := tFirstFrameStart - decodeBase

	var totalTime int64
	if metrics.Success > 0 {
		if playerPreBuffered {
			totalTime = tFirstFrameStart - tPreBufferStart
		} else {
			totalTime = tFirstFrameStart
		}
	} else if !metrics.TotalTime.IsZero() {
		totalTime = metrics.TotalTime.Sub(p.tuneStartMonotonic).Milliseconds()
	}

	timedMetadataStart := int64(0)
	if !metrics.TimedMetadataStartTime.IsZero() {
		timedMetadataStart = metrics.TimedMetadataStartTime.Sub(p.tuneStartMonotonic).Milliseconds()
		if timedMetadataStart < 0 {
			timedMetadataStart = 0
		}
	}

	gps := tFirstBufferStart
	gff := tFirstFrameStart
	if playerPreBuffered && metrics.Success > 0 {
		gps = tFirstBufferStart - tPreBufferStart
		gff = tFirstFrameStart - tPreBufferStart
	}
	tpb := int64(0)
	if playerPreBuffered {
		tpb = tPreBufferStart
	}

	buckets := p.buckets
	tuneStartUTCMs := p.tuneStartUTCMs
	bandwidthVideoBPS := p.bandwidthVideoBPS
	bandwidthAudioBPS := p.bandwidthAudioBPS
	drmErrorCode := p.drmErrorCode
	p.mu.Unlock()

	prefix := fmt.Sprintf("%s PLAYER[%d] IP_AAMP_TUNETIME", playerActiveMode, playerID)
	if appName != "" {
		prefix = fmt.Sprintf("%s PLAYER[%d] APP: %s IP_AAMP_TUNETIME", playerActiveMode, playerID, appName)
	}

	csvLine = fmt.Sprintf(
		"%s:%d,%s,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,%d,"+
			"%d,%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,%d,"+
			"%d,%d,"+
			"%d,%d,"+
			"%d,%d,%s,%s,"+
			"%d,%d,%d,%d,%d",
		prefix, tuneTimeVersion, tuneTimeBuild, tuneStartUTCMs,

		buckets[BucketManifest].tStart, buckets[BucketManifest].duration(), buckets[BucketManifest].errorCount,
		buckets[BucketPlaylistVideo].tStart, buckets[BucketPlaylistVideo].duration(), buckets[BucketPlaylistVideo].errorCount,
		buckets[BucketPlaylistAudio].tStart, buckets[BucketPlaylistAudio].duration(), buckets[BucketPlaylistAudio].errorCount,

		buckets[BucketInitVideo].tStart, buckets[BucketInitVideo].duration(), buckets[BucketInitVideo].errorCount,
		buckets[BucketInitAudio].tStart, buckets[BucketInitAudio].duration(), buckets[BucketInitAudio].errorCount,

		buckets[BucketFragmentVideo].tStart, buckets[BucketFragmentVideo].duration(), buckets[BucketFragmentVideo].errorCount, bandwidthVideoBPS,
		buckets[BucketFragmentAudio].tStart, buckets[BucketFragmentAudio].duration(), buckets[BucketFragmentAudio].errorCount, bandwidthAudioBPS,

		buckets[BucketLATotal].tStart, buckets[BucketLATotal].duration(), drmErrorCode,
		buckets[BucketLAPreproc].duration(), licenseAcqNWTime, buckets[BucketLAPostproc].duration(),

		buckets[BucketDecryptVideo].duration(), buckets[BucketDecryptAudio].duration(),

		gps, gff, tDecode,
		metrics.ContentType, metrics.StreamType, boolToInt(metrics.FirstTune),
		boolToInt(playerPreBuffered), tpb,
		durationSeconds, boolToInt(interfaceWifi),
		metrics.TuneAttempts, metrics.Success, failureReason, appName,
		metrics.TimedMetadataCount, timedMetadataStart, metrics.TimedMetadataDuration, boolToInt(metrics.FogTSBEnabled), totalTime,
	)

	payload := tuneTimeJSON{
		Pre: prefix, Ver: tuneTimeVersion, Bld: tuneTimeBuild, Tbu: tuneStartUTCMs,

		Mms: buckets[BucketManifest].tStart, Mmt: buckets[BucketManifest].duration(), Mme: buckets[BucketManifest].errorCount,
		Vps: buckets[BucketPlaylistVideo].tStart, Vpt: buckets[BucketPlaylistVideo].duration(), Vpe: buckets[BucketPlaylistVideo].errorCount,
		Aps: buckets[BucketPlaylistAudio].tStart, Apt: buckets[BucketPlaylistAudio].duration(), Ape: buckets[BucketPlaylistAudio].errorCount,

		Vis: buckets[BucketInitVideo].tStart, Vit: buckets[BucketInitVideo].duration(), Vie: buckets[BucketInitVideo].errorCount,
		Ais: buckets[BucketInitAudio].tStart, Ait: buckets[BucketInitAudio].duration(), Aie: buckets[BucketInitAudio].errorCount,

		Vfs: buckets[BucketFragmentVideo].tStart, Vft: buckets[BucketFragmentVideo].duration(), Vfe: buckets[BucketFragmentVideo].errorCount, Vfb: bandwidthVideoBPS,
		Afs: buckets[BucketFragmentAudio].tStart, Aft: buckets[BucketFragmentAudio].duration(), Afe: buckets[BucketFragmentAudio].errorCount, Afb: bandwidthAudioBPS,

		Las: buckets[BucketLATotal].tStart, Lat: buckets[BucketLATotal].duration(), Dfe: drmErrorCode,
		Lpr: buckets[BucketLAPreproc].duration(), Lnw: licenseAcqNWTime, Lps: buckets[BucketLAPostproc].duration(),

		Vdd: buckets[BucketDecryptVideo].duration(), Add: buckets[BucketDecryptAudio].duration(),

		Gps: gps, Gff: gff,

		Cnt: metrics.ContentType, Stt: metrics.StreamType, Ftt: metrics.FirstTune,

		Pbm: boolToInt(playerPreBuffered), Tpb: tpb,

		Dus: durationSeconds, Ifw: boolToInt(interfaceWifi),

		Tat: metrics.TuneAttempts, Tst: metrics.Success, Frs: failureReason, App: appName,

		Tsb: boolToInt(metrics.FogTSBEnabled), Tot: totalTime,
	}
	if b, err := json.Marshal(payload); err == nil {
		telemetryJSON = string(b)
	} else {
		p.logger.Warn("failed to marshal tune-time telemetry", slog.String("error", err.Error()))
	}

	return csvLine, telemetryJSON
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
