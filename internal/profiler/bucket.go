// Package profiler implements the tune-time and steady-state telemetry
// model: bucketed phase timings relative to a per-tune monotonic base,
// producing a legacy CSV line and a structured JSON payload once a tune
// completes, plus running discontinuity/low-latency-buffer telemetry
// accumulated across the life of a session.
package profiler

import "fmt"

// BucketType identifies one semantic phase of a tune. Bucket timestamps
// are always relative to the monotonic base captured at TuneBegin.
type BucketType int

// Bucket types, in the same order as the legacy CSV/JSON field groups.
const (
	BucketManifest BucketType = iota

	BucketPlaylistVideo
	BucketPlaylistAudio
	BucketPlaylistSubtitle
	BucketPlaylistAuxiliary

	BucketInitVideo
	BucketInitAudio
	BucketInitSubtitle
	BucketInitAuxiliary

	BucketFragmentVideo
	BucketFragmentAudio
	BucketFragmentSubtitle
	BucketFragmentAuxiliary

	BucketDecryptVideo
	BucketDecryptAudio
	BucketDecryptSubtitle
	BucketDecryptAuxiliary

	BucketLATotal
	BucketLAPreproc
	BucketLANetwork
	BucketLAPostproc

	BucketFirstBuffer
	BucketFirstFrame
	BucketPlayerPreBuffered

	BucketDiscoTotal
	BucketDiscoFlush
	BucketDiscoFirstFrame

	bucketTypeCount
)

// String names match the upstream enum identifiers so buckets stay
// greppable against reference traces.
func (b BucketType) String() string {
	names := [bucketTypeCount]string{
		BucketManifest:          "manifest",
		BucketPlaylistVideo:     "playlist_video",
		BucketPlaylistAudio:     "playlist_audio",
		BucketPlaylistSubtitle:  "playlist_subtitle",
		BucketPlaylistAuxiliary: "playlist_auxiliary",
		BucketInitVideo:         "init_video",
		BucketInitAudio:         "init_audio",
		BucketInitSubtitle:      "init_subtitle",
		BucketInitAuxiliary:     "init_auxiliary",
		BucketFragmentVideo:     "fragment_video",
		BucketFragmentAudio:     "fragment_audio",
		BucketFragmentSubtitle:  "fragment_subtitle",
		BucketFragmentAuxiliary: "fragment_auxiliary",
		BucketDecryptVideo:      "decrypt_video",
		BucketDecryptAudio:      "decrypt_audio",
		BucketDecryptSubtitle:   "decrypt_subtitle",
		BucketDecryptAuxiliary:  "decrypt_auxiliary",
		BucketLATotal:           "license_total",
		BucketLAPreproc:         "license_preproc",
		BucketLANetwork:         "license_network",
		BucketLAPostproc:        "license_postproc",
		BucketFirstBuffer:       "first_buffer",
		BucketFirstFrame:        "first_frame",
		BucketPlayerPreBuffered: "player_pre_buffered",
		BucketDiscoTotal:        "disco_total",
		BucketDiscoFlush:        "disco_flush",
		BucketDiscoFirstFrame:   "disco_first_frame",
	}
	if b < 0 || int(b) >= len(names) || names[b] == "" {
		return fmt.Sprintf("bucket(%d)", int(b))
	}
	return names[b]
}

// bucket is one phase's timing state, relative to a tune's monotonic base.
type bucket struct {
	tStart     int64 // ms relative to tuneStartMonotonic
	tFinish    int64
	errorCount int
	complete   bool
	started    bool
}

// duration returns the bucket's elapsed time, or zero if never completed.
func (b bucket) duration() int64 {
	if b.complete {
		return b.tFinish - b.tStart
	}
	return 0
}
