package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/tsb"
)

var (
	inspectTSBFragments int
	inspectTSBDuration  float64
	inspectTSBMax       float64
)

var inspectTSBCmd = &cobra.Command{
	Use:   "inspect-tsb",
	Short: "Write synthetic fragments into a Local TSB store, then drain it",
	Long: `inspect-tsb writes --fragments synthetic video fragments of
--fragment-duration seconds each into a Local TSB Manager bounded by
--max-duration seconds, reports the resulting store depth, then pushes
every fragment back out via PushNextTsbFragment in sequence order.`,
	RunE: runInspectTSB,
}

func init() {
	inspectTSBCmd.Flags().IntVar(&inspectTSBFragments, "fragments", 10, "number of synthetic fragments to write")
	inspectTSBCmd.Flags().Float64Var(&inspectTSBDuration, "fragment-duration", 2.0, "duration in seconds of each synthetic fragment")
	inspectTSBCmd.Flags().Float64Var(&inspectTSBMax, "max-duration", 30, "Local TSB retention window in seconds")
	rootCmd.AddCommand(inspectTSBCmd)
}

func runInspectTSB(cmd *cobra.Command, args []string) error {
	mgr, err := tsb.NewManager(tsb.Config{MaxDurationSeconds: inspectTSBMax})
	if err != nil {
		return fmt.Errorf("creating TSB manager: %w", err)
	}
	defer mgr.Close()
	if err := mgr.Init(); err != nil {
		return fmt.Errorf("initializing TSB manager: %w", err)
	}

	position := 0.0
	for i := 0; i < inspectTSBFragments; i++ {
		data := []byte(fmt.Sprintf("fragment-%d", i))
		if err := mgr.Write(bufferctl.MediaTypeVideo, data, position, inspectTSBDuration, false, "period-0"); err != nil {
			return fmt.Errorf("writing fragment %d: %w", i, err)
		}
		position += inspectTSBDuration
	}

	storeDurationAfterWrite := mgr.GetTotalStoreDuration(bufferctl.MediaTypeVideo)

	type drained struct {
		Sequence uint64  `json:"sequence"`
		Position float64 `json:"position"`
		Duration float64 `json:"duration"`
	}
	var out []drained
	ctx := context.Background()
	for {
		frag, ok := mgr.PushNextTsbFragment(ctx, bufferctl.MediaTypeVideo, 1)
		if !ok {
			break
		}
		out = append(out, drained{Sequence: frag.Sequence, Position: frag.Position, Duration: frag.Duration})
	}

	result := struct {
		StoreDurationAfterWrite float64   `json:"store_duration_after_write"`
		Drained                 []drained `json:"drained"`
	}{
		StoreDurationAfterWrite: storeDurationAfterWrite,
		Drained:                 out,
	}

	payload, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(payload))
	return nil
}
