// Command amfadm is the administrative CLI and interactive shell:
// lock/unlock/shutdown/repair/report/export against a Director's model
// arena, mirroring the teacher's split between one-shot subcommands and
// an interactive REPL mode.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"amfcore/internal/admincli"
	"amfcore/internal/director"
	"amfcore/internal/model"
	"amfcore/internal/protocol"
	"amfcore/internal/recovery"
	"amfcore/internal/sgfsm"
	"amfcore/internal/snapshot"
	"amfcore/pkg/logging"
)

var fixturePath string

var rootCmd = &cobra.Command{
	Use:          "amfadm",
	Short:        "AMF administrative CLI",
	SilenceUsage: true,
}

var reportCmd = &cobra.Command{
	Use:   "report [su|susi]",
	Short: "Render a table report of cluster state from a fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current fixture's model arena as YAML to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var loadFixtureCmd = &cobra.Command{
	Use:   "load-fixture",
	Short: "Validate a fixture file decodes cleanly and summarize its contents",
	Args:  cobra.NoArgs,
	RunE:  runLoadFixture,
}

var replCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive admin shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var adminOpCmd = &cobra.Command{
	Use:   "admin-op [lock|unlock|shutdown|repaired] <su-name>",
	Short: "Apply an admin operation to a SU against a fixture, printing the resulting state",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminOp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "snapshot YAML fixture to operate on (required for report/export/load-fixture)")
	rootCmd.AddCommand(reportCmd, exportCmd, loadFixtureCmd, replCmd, adminOpCmd)
}

func adminOpByName(name string) (model.AdminOpID, error) {
	switch name {
	case "lock":
		return model.AdminOpLock, nil
	case "unlock":
		return model.AdminOpUnlock, nil
	case "shutdown":
		return model.AdminOpShutdown, nil
	case "repaired":
		return model.AdminOpRepaired, nil
	case "lock-instantiation":
		return model.AdminOpLockInstantiation, nil
	case "unlock-instantiation":
		return model.AdminOpUnlockInstantiation, nil
	default:
		return model.AdminOpNone, fmt.Errorf("amfadm: unknown admin op %q", name)
	}
}

func runAdminOp(cmd *cobra.Command, args []string) error {
	op, err := adminOpByName(args[0])
	if err != nil {
		return err
	}
	suName := args[1]

	arena, err := loadArena()
	if err != nil {
		return err
	}

	var target *model.ServiceUnit
	for _, su := range arena.SUs() {
		if su.Name == suName {
			target = su
			break
		}
	}
	if target == nil {
		return fmt.Errorf("amfadm: no such SU %q", suName)
	}

	ladder := recovery.NewLadder(recovery.Config{}, arena, nil)
	sink := &protocol.AssignmentSink{
		Arena:    arena,
		Registry: protocol.NewRegistry(),
		NewChannel: func(nodeID string) *protocol.PairChannel {
			return protocol.NewPairChannel(nodeID, nil, nil)
		},
	}
	engine := &sgfsm.Engine{Arena: arena, Sink: sink, Recovery: ladder}
	d := director.New(arena, engine, ladder, sink.Registry)
	ladder.SetReporter(d)

	if err := d.ApplySUAdminOp(target, op, nil); err != nil {
		return err
	}

	admincli.WriteSUReport(cmd.OutOrStdout(), admincli.SURows(arena))
	return nil
}

func loadArena() (*model.Arena, error) {
	if fixturePath == "" {
		return nil, fmt.Errorf("amfadm: --fixture is required")
	}
	data, err := os.ReadFile(fixturePath)
	if err != nil {
		return nil, err
	}
	return snapshot.Load(data)
}

func runReport(cmd *cobra.Command, args []string) error {
	arena, err := loadArena()
	if err != nil {
		return err
	}

	switch args[0] {
	case "su":
		admincli.WriteSUReport(cmd.OutOrStdout(), admincli.SURows(arena))
	case "susi":
		admincli.WriteSUSIReport(cmd.OutOrStdout(), admincli.SUSIRows(arena))
	default:
		return fmt.Errorf("amfadm: unknown report kind %q (want su|susi)", args[0])
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	arena, err := loadArena()
	if err != nil {
		return err
	}
	data, err := snapshot.Export(arena)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runLoadFixture(cmd *cobra.Command, args []string) error {
	arena, err := loadArena()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d nodes, %d SGs, %d SUs, %d SIs\n",
		len(arena.Nodes()), len(arena.SGs()), len(arena.SUs()), len(arena.SIs()))
	return nil
}

func runShell(cmd *cobra.Command, args []string) error {
	arena, err := loadArena()
	if err != nil {
		arena = model.NewArena()
	}

	logCh := logging.InitForREPL(logging.LevelInfo)
	repl, err := admincli.NewREPL("", logCh)
	if err != nil {
		return err
	}

	repl.Register("report", func(out io.Writer, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: report su|susi")
		}
		switch args[0] {
		case "su":
			admincli.WriteSUReport(out, admincli.SURows(arena))
		case "susi":
			admincli.WriteSUSIReport(out, admincli.SUSIRows(arena))
		default:
			return fmt.Errorf("unknown report kind %q", args[0])
		}
		return nil
	})

	return repl.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
