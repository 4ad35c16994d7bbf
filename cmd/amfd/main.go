// Command amfd is the Director daemon: the active/standby singleton that
// owns the cluster model arena and drives the SG FSM, the escalation
// ladder, and the D<->ND protocol registry.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"amfcore/internal/director"
	"amfcore/internal/metrics"
	"amfcore/internal/model"
	"amfcore/internal/protocol"
	"amfcore/internal/recovery"
	"amfcore/internal/sgfsm"
	"amfcore/internal/snapshot"
	"amfcore/pkg/logging"
)

var (
	fixturePath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "amfd",
	Short:         "AMF Director daemon",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Director process, becoming active immediately",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&fixturePath, "fixture", "", "optional snapshot YAML to seed the model arena from, for demonstration/test runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	rootCmd.AddCommand(serveCmd)
}

func parseLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(parseLevel(logLevel), os.Stderr)

	arena := model.NewArena()
	if fixturePath != "" {
		data, err := os.ReadFile(fixturePath)
		if err != nil {
			return err
		}
		loaded, err := snapshot.Load(data)
		if err != nil {
			return err
		}
		arena = loaded
	}

	metricsReg := metrics.New()
	protoRegistry := protocol.NewRegistry()
	ladder := recovery.NewLadder(recovery.Config{}, arena, nil)
	gapHandler := metrics.GapHandler{Registry: metricsReg}
	sink := &protocol.AssignmentSink{
		Arena:    arena,
		Registry: protoRegistry,
		NewChannel: func(nodeID string) *protocol.PairChannel {
			return protocol.NewPairChannel(nodeID, nil, gapHandler)
		},
	}
	engine := &sgfsm.Engine{Arena: arena, Sink: sink, Recovery: ladder}

	d := director.New(arena, engine, ladder, protoRegistry).WithMetrics(metricsReg)
	ladder.SetReporter(d)
	d.PromoteToActive()

	logging.Info("Director", "amfd serving, %d nodes loaded from fixture", len(arena.Nodes()))

	select {}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
