package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aampcore/internal/aampconfig"
	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/config"
	"github.com/jmylchreest/aampcore/internal/drmiface"
	"github.com/jmylchreest/aampcore/internal/profiler"
	"github.com/jmylchreest/aampcore/internal/sink"
	"github.com/jmylchreest/aampcore/internal/taskrunner"
	"github.com/jmylchreest/aampcore/internal/tsb"
	"github.com/jmylchreest/aampcore/internal/tune"
)

var (
	tuneSeekPosition float64
	tuneRate         float64
	tuneLive         bool
)

var tuneCmd = &cobra.Command{
	Use:   "tune <url>",
	Short: "Drive a new-tune through the Tune / Playback State Machine",
	Long: `tune classifies the given URL, runs it through TuneHelper as a
new-tune request against a fake stream abstraction and sink, and prints
the resulting session state, format and rate plus the sink's Configure
and Flush call counts. No real
fetcher, DRM, or media sink is involved.`,
	Args: cobra.ExactArgs(1),
	RunE: runTune,
}

func init() {
	tuneCmd.Flags().Float64Var(&tuneSeekPosition, "seek", 0, "initial seek position in seconds")
	tuneCmd.Flags().Float64Var(&tuneRate, "rate", 1.0, "initial playback rate")
	tuneCmd.Flags().BoolVar(&tuneLive, "live", false, "simulate a live stream (enables the Local TSB injection decision)")
	rootCmd.AddCommand(tuneCmd)
}

// newHarnessSession builds a Session wired to in-memory fakes for every
// external collaborator (§1 non-goals: sink, fetcher, DRM, manifest
// parsing), suitable for exercising the Tune state machine end to end
// from the command line.
func newHarnessSession(logger *slog.Logger) (*tune.Session, *sink.Fake, *tsb.Manager, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	defaults := aampconfig.NewDefaultsLoader(func() (*config.Config, error) { return cfg, nil })
	store := aampconfig.NewStore(defaults, logger)
	store.SeedDefaults(cfg)

	prof := profiler.NewProfiler(logger)
	tasks := taskrunner.NewRunner(logger)

	tsbMgr, err := tsb.NewManager(tsb.DefaultConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating TSB manager: %w", err)
	}
	if err := tsbMgr.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("initializing TSB manager: %w", err)
	}

	sinkFake := sink.NewFake()
	adapter := newSinkAdapter(sinkFake)

	tracks := []bufferctl.MediaType{bufferctl.MediaTypeVideo, bufferctl.MediaTypeAudio}
	live := tuneLive
	newAbstraction := func(format tune.Format, seekPosition, rate float64) (tune.StreamAbstraction, error) {
		logger.Debug("creating fake stream abstraction",
			slog.String("format", format.String()),
			slog.Float64("seek_position", seekPosition),
			slog.Float64("rate", rate))
		return newFakeStreamAbstraction(logger, live), nil
	}

	session := tune.NewSession(tracks, newAbstraction, adapter, tsbMgr, prof, store, tasks, logger)
	return session, sinkFake, tsbMgr, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	url := args[0]

	session, sinkFake, tsbMgr, err := newHarnessSession(logger)
	if err != nil {
		return err
	}
	defer tsbMgr.Close()

	drm := drmiface.NewFake()
	drm.SetResponse(drmiface.LicenseResponse{SessionID: "cli-session"}, nil)

	session.SetRate(tuneRate)
	if err := session.TuneHelper(tune.TuneTypeNewNormal, url, tuneSeekPosition, false); err != nil {
		return fmt.Errorf("tune failed: %w", err)
	}

	result := struct {
		State        string `json:"state"`
		Format       string `json:"format"`
		Rate         float64 `json:"rate"`
		SinkConfigures int   `json:"sink_configures"`
		SinkFlushes  int    `json:"sink_flushes"`
	}{
		State:          session.State().String(),
		Format:         session.Format().String(),
		Rate:           session.Rate(),
		SinkConfigures: len(sinkFake.Configured),
		SinkFlushes:    len(sinkFake.Flushes),
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	return nil
}
