// Package admincli provides the amfadm command tree's interactive
// surface: go-pretty table rendering for `report`, a readline-backed REPL
// shell, and a spinner for admin ops that block on SG FSM drain,
// following the teacher's internal/cli + internal/agent split (table
// builder and REPL as separate files, same package).
package admincli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"amfcore/internal/model"
	amfstrings "amfcore/pkg/strings"
)

// nameColumnMaxLen bounds how wide a Name/SG/Node/SU/SI column gets before
// TruncateDescription collapses it, keeping report tables readable when a
// configured entity name runs long.
const nameColumnMaxLen = 32

func truncateName(s string) string {
	return amfstrings.TruncateDescription(s, nameColumnMaxLen)
}

// SUReportRow is one row of `amfadm report su`.
type SUReportRow struct {
	Name       string
	SG         string
	Node       string
	AdminState string
	OperState  string
	Readiness  string
	Presence   string
}

// SURows collects report rows for every SU in arena.
func SURows(arena *model.Arena) []SUReportRow {
	var rows []SUReportRow
	for _, su := range arena.SUs() {
		sgName, nodeName := "-", "-"
		if sg, ok := arena.SG(su.SG); ok {
			sgName = sg.Name
		}
		if node, ok := arena.Node(su.Node); ok {
			nodeName = node.NodeID
		}
		rows = append(rows, SUReportRow{
			Name:       su.Name,
			SG:         sgName,
			Node:       nodeName,
			AdminState: su.AdminState.String(),
			OperState:  su.OperState.String(),
			Readiness:  su.Readiness.String(),
			Presence:   su.Presence.String(),
		})
	}
	return rows
}

// WriteSUReport renders rows as a plain-text table to w, mirroring the
// teacher's kubectl-style plain (non-colored) report output.
func WriteSUReport(w io.Writer, rows []SUReportRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"NAME", "SG", "NODE", "ADMIN", "OPER", "READINESS", "PRESENCE"})
	for _, r := range rows {
		t.AppendRow(table.Row{truncateName(r.Name), truncateName(r.SG), truncateName(r.Node), r.AdminState, r.OperState, r.Readiness, r.Presence})
	}
	t.Render()
}

// SUSIReportRow is one row of `amfadm report susi`.
type SUSIReportRow struct {
	SU       string
	SI       string
	HAState  string
	FSMState string
}

// SUSIRows collects report rows for every SUSI assignment in arena.
func SUSIRows(arena *model.Arena) []SUSIReportRow {
	var rows []SUSIReportRow
	for _, susi := range arena.SUSIs() {
		suName, siName := "-", "-"
		if su, ok := arena.SU(susi.SU); ok {
			suName = su.Name
		}
		if si, ok := arena.SI(susi.SI); ok {
			siName = si.Name
		}
		rows = append(rows, SUSIReportRow{
			SU:       suName,
			SI:       siName,
			HAState:  susi.HAState.String(),
			FSMState: susi.FSMState.String(),
		})
	}
	return rows
}

// WriteSUSIReport renders rows as a plain-text table to w.
func WriteSUSIReport(w io.Writer, rows []SUSIReportRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"SU", "SI", "HA STATE", "FSM STATE"})
	for _, r := range rows {
		t.AppendRow(table.Row{truncateName(r.SU), truncateName(r.SI), r.HAState, r.FSMState})
	}
	t.Render()
}

// EscalationReportRow is one row of an escalation-state table (`amfadm
// report` itself offers only su and susi).
type EscalationReportRow struct {
	NodeID string
	Level  string
}

// WriteEscalationReport renders rows as a plain-text table to w.
func WriteEscalationReport(w io.Writer, rows []EscalationReportRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"NODE", "ESCALATION LEVEL"})
	for _, r := range rows {
		t.AppendRow(table.Row{truncateName(r.NodeID), r.Level})
	}
	t.Render()
}

// formatInvocation is a small helper shared by command handlers that print
// an admin-op acknowledgement line.
func formatInvocation(op model.AdminOpID, target string) string {
	return fmt.Sprintf("%s accepted for %s", op, target)
}
