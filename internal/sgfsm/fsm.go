// Package sgfsm implements the per-service-group FSM shared by all five
// redundancy models. The state shape (STABLE, SG_REALIGN, SU_OPER, SI_OPER,
// SG_ADMIN) and the eight reactions it dispatches on are identical across
// models; only the choose-and-assign planner and a handful of per-model
// thresholds differ. Each model is a distinct Handler selected by the SG's
// stored RedundancyModel tag.
package sgfsm

import (
	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// Event is one of the eight SG FSM reactions.
type Event int

const (
	EventNewSI Event = iota
	EventSUFault
	EventSUInsvc
	EventSUSISuccess
	EventSUSIFailure
	EventRealign
	EventNodeFail
	EventAdminChange
)

func (e Event) String() string {
	switch e {
	case EventNewSI:
		return "NEW_SI"
	case EventSUFault:
		return "SU_FAULT"
	case EventSUInsvc:
		return "SU_INSVC"
	case EventSUSISuccess:
		return "SUSI_SUCCESS"
	case EventSUSIFailure:
		return "SUSI_FAILURE"
	case EventRealign:
		return "REALIGN"
	case EventNodeFail:
		return "NODE_FAIL"
	case EventAdminChange:
		return "ADMIN_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// AssignmentSink issues SUSI mutations against the D->ND protocol layer.
// sgfsm only ever stages/updates the in-memory SUSI record and calls this
// interface to have the change actually communicated to the owning node;
// the real implementation lives in internal/protocol.
type AssignmentSink interface {
	IssueSUSI(susi *model.SUSI)
	ModifySUSI(susi *model.SUSI, newHAState model.HAState)
	DeleteSUSI(susi *model.SUSI)
}

// FailoverReporter is consulted when a SUSI failure needs to escalate
// component-failover upward per an SU's saAmfSUFailover policy; the real
// implementation is the escalation ladder in internal/recovery.
type FailoverReporter interface {
	ReportSUFailover(su *model.ServiceUnit)
}

// Engine bundles the arena and assignment sink every model handler needs.
type Engine struct {
	Arena    *model.Arena
	Sink     AssignmentSink
	Recovery FailoverReporter
}

func (e *Engine) logTransition(sg *model.ServiceGroup, from model.SGFSMState) {
	if sg.FSMState != from {
		logging.Info("SGFSM", "SG %s %s -> %s", sg.Name, from, sg.FSMState)
	}
}
