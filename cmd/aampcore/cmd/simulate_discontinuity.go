package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/codec"
	"github.com/jmylchreest/aampcore/internal/tune"
)

var (
	simulateDiscontinuityWaitTimeout time.Duration
	simulateDiscontinuityPrevCodec   string
	simulateDiscontinuityNextCodec   string
)

var simulateDiscontinuityCmd = &cobra.Command{
	Use:   "simulate-discontinuity",
	Short: "Drive a discontinuity-tune across every enabled track",
	Long: `simulate-discontinuity tunes a session, begins a discontinuity,
acknowledges it on every enabled track one at a time, and reports how
many tracks had acknowledged after each step — demonstrating that
DiscontinuitySeenInAllTracks only flips true once the last track acks.`,
	RunE: runSimulateDiscontinuity,
}

func init() {
	simulateDiscontinuityCmd.Flags().DurationVar(&simulateDiscontinuityWaitTimeout, "wait-timeout", 2*time.Second, "how long to wait for WaitForDiscontinuityProcessToComplete before giving up")
	simulateDiscontinuityCmd.Flags().StringVar(&simulateDiscontinuityPrevCodec, "prev-video-codec", "avc1.64001f", "video codec string observed before the discontinuity")
	simulateDiscontinuityCmd.Flags().StringVar(&simulateDiscontinuityNextCodec, "next-video-codec", "avc1.64001f", "video codec string observed after the discontinuity")
	rootCmd.AddCommand(simulateDiscontinuityCmd)
}

func runSimulateDiscontinuity(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	session, _, tsbMgr, err := newHarnessSession(logger)
	if err != nil {
		return err
	}
	defer tsbMgr.Close()

	if err := session.TuneHelper(tune.TuneTypeNewNormal, "https://example.test/live.mpd", 0, false); err != nil {
		return fmt.Errorf("tune failed: %w", err)
	}

	session.BeginDiscontinuity()

	done := make(chan struct{})
	go func() {
		session.WaitForDiscontinuityProcessToComplete()
		close(done)
	}()

	type ackStep struct {
		MediaType  string `json:"media_type"`
		Accepted   bool   `json:"accepted"`
		AllTracksSeen bool `json:"all_tracks_seen"`
	}
	var steps []ackStep
	for _, mt := range []bufferctl.MediaType{bufferctl.MediaTypeVideo, bufferctl.MediaTypeAudio} {
		accepted := session.Discontinuity(mt, false)
		steps = append(steps, ackStep{
			MediaType:     mt.String(),
			Accepted:      accepted,
			AllTracksSeen: session.DiscontinuitySeenInAllTracks(),
		})
	}

	completed := false
	select {
	case <-done:
		completed = true
	case <-time.After(simulateDiscontinuityWaitTimeout):
	}

	codecChanged := !codec.VideoMatch(simulateDiscontinuityPrevCodec, simulateDiscontinuityNextCodec)
	reconfigure := session.ReconfigureForCodecChange(codecChanged)

	result := struct {
		Steps                []ackStep `json:"steps"`
		Completed            bool      `json:"wait_completed"`
		CodecChanged         bool      `json:"codec_changed"`
		ReconfigurePipeline  bool      `json:"reconfigure_pipeline"`
	}{Steps: steps, Completed: completed, CodecChanged: codecChanged, ReconfigurePipeline: reconfigure}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	return nil
}
