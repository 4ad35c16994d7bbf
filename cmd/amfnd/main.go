// Command amfnd is the Node Director daemon: the per-node agent that owns
// local CLC controllers and folds component presence into SU state via
// the SU presence aggregator.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"amfcore/internal/model"
	"amfcore/internal/nodedirector"
	"amfcore/pkg/logging"
)

var (
	nodeID   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "amfnd",
	Short:        "AMF Node Director daemon",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local Node Director agent",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&nodeID, "node-id", "", "this node's NodeID, as registered with the Director")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	rootCmd.AddCommand(serveCmd)
	_ = serveCmd.MarkFlagRequired("node-id")
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

// noScripts is the default script resolver for a bare demonstration run: it
// resolves no path, which clc.ProcessExecutor treats as "launch nothing" and
// reports as a normal exit, per clc.ScriptResolver's contract. Production deployments supply a real resolver backed by the
// node's packaged component-type registry.
func noScripts(comp *model.Component, cmd model.CLCCommand) (string, []string) {
	return "", nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(parseLevel(logLevel), os.Stderr)

	arena := model.NewArena()
	nd := nodedirector.New(nodeID, arena, noScripts, func(su *model.ServiceUnit, p model.Presence) {
		logging.Info("NodeDirector", "SU %s reached terminal presence %s", su.Name, p)
	})
	_ = nd

	logging.Info("NodeDirector", "amfnd serving for node %s", nodeID)

	select {}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
