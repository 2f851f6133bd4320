package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aampcore/internal/tune"
)

var stopURL string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Tune then immediately stop, exercising the teardown/Stop lifecycle",
	Long: `stop runs a new-tune against a fake stream abstraction and sink,
then calls Session.Stop twice, printing the final (idempotent) session
state and the sink's Stop call count.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopURL, "url", "https://example.test/manifest.mpd", "URL to tune before stopping")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	session, sinkFake, tsbMgr, err := newHarnessSession(logger)
	if err != nil {
		return err
	}
	defer tsbMgr.Close()

	if err := session.TuneHelper(tune.TuneTypeNewNormal, stopURL, 0, false); err != nil {
		return fmt.Errorf("tune failed: %w", err)
	}

	session.Stop()
	// Stop is idempotent; call it twice to demonstrate the no-op path.
	session.Stop()

	out, _ := json.MarshalIndent(struct {
		State     string `json:"state"`
		SinkStops int    `json:"sink_stops"`
	}{
		State:     session.State().String(),
		SinkStops: len(sinkFake.Stops),
	}, "", "  ")
	fmt.Println(string(out))
	return nil
}
