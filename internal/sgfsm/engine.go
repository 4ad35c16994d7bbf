package sgfsm

import (
	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// modifyAllQuiescedOnSU drives every ACTIVE SUSI on su to QUIESCING (the
// protocol layer later reports QUIESCED once the node acks it).
func (e *Engine) modifyAllQuiescedOnSU(su *model.ServiceUnit) {
	for _, idx := range su.SUSIs {
		susi, ok := e.Arena.SUSI(idx)
		if !ok || susi.HAState != model.HAActive {
			continue
		}
		susi.HAState = model.HAQuiescing
		susi.FSMState = model.SUSIModify
		e.Sink.ModifySUSI(susi, model.HAQuiescing)
	}
}

// freeAllSUSIsOnSU unassigns every SUSI su carries, used by node-fail
// handling and by the no-redundancy/2N fault paths that free rather than
// renegotiate.
func (e *Engine) freeAllSUSIsOnSU(su *model.ServiceUnit) {
	for _, idx := range append([]model.Index(nil), su.SUSIs...) {
		susi, ok := e.Arena.SUSI(idx)
		if !ok {
			continue
		}
		e.Sink.DeleteSUSI(susi)
		e.Arena.RemoveSUSI(idx)
		su.RemoveSUSI(idx)
	}
}

// handleSUFaultCommon implements the SU-fault reaction shared across all
// five redundancy models: STABLE drives modify-all-QUIESCED and opens
// SU_OPER; SU_OPER promotes a QUIESCING oper-SU to QUIESCED, issues the
// DEL that frees it, finalizes any in-flight shutdown, and moves the SG to
// SG_REALIGN so the DEL ack re-runs choose-and-assign; SI_OPER clears the
// admin-SI pointer if the faulted SU held its only assignment.
func (e *Engine) handleSUFaultCommon(sg *model.ServiceGroup, su *model.ServiceUnit) {
	switch sg.FSMState {
	case model.SGStable:
		e.modifyAllQuiescedOnSU(su)
		sg.AddToOperList(su.Idx)
		sg.FSMState = model.SGSUOper

	case model.SGSUOper:
		if !sg.InOperList(su.Idx) {
			return
		}
		for _, idx := range su.SUSIs {
			susi, ok := e.Arena.SUSI(idx)
			if !ok || susi.HAState != model.HAQuiescing {
				continue
			}
			susi.HAState = model.HAQuiesced
			e.Sink.ModifySUSI(susi, model.HAQuiesced)
			susi.FSMState = model.SUSIUnasgn
			e.Sink.DeleteSUSI(susi)
		}
		if su.AdminState == model.AdminShuttingDown {
			su.AdminState = model.AdminLocked
		}
		sg.FSMState = model.SGRealign

	case model.SGSIOper:
		if sg.AdminSI == nil {
			return
		}
		si, ok := e.Arena.SI(*sg.AdminSI)
		if !ok {
			return
		}
		if si.AssignedTo(su.Idx, e.Arena.SUSI) && len(su.SUSIs) == 1 {
			si.AdminState = model.AdminLocked
			sg.AdminSI = nil
		}
	}
}

// handleSUSISuccessCommon implements the shared DEL-success reaction in
// SG_REALIGN: free the acknowledged assignment, drop the owning SU from
// the oper-list once it has no assignments left, and re-run
// choose-and-assign (or settle to STABLE) once both the admin-SI slot and
// the oper-list have drained.
func (e *Engine) handleSUSISuccessCommon(sg *model.ServiceGroup, susi *model.SUSI, chooseAndAssign func(*model.ServiceGroup)) {
	if sg.FSMState != model.SGRealign {
		return
	}
	if !susi.CanTransitionToFreed() {
		return
	}

	su, ok := e.Arena.SU(susi.SU)
	if ok {
		su.RemoveSUSI(susi.Idx)
	}
	e.Arena.RemoveSUSI(susi.Idx)

	if ok && !su.HasAssignments() {
		sg.RemoveFromOperList(su.Idx)
	}

	if len(sg.SUOperList) != 0 || sg.AdminSI != nil {
		return
	}

	if chooseAndAssign != nil {
		chooseAndAssign(sg)
	}
	sg.MaybeReturnToStable()
}

// handleSUSIFailureCommon drives the best-effort forced-quiesced-then-DEL
// sequence common to every model, regardless of what caused the
// assignment failure.
func (e *Engine) handleSUSIFailureCommon(sg *model.ServiceGroup, susi *model.SUSI) {
	if susi.HAState == model.HAActive || susi.HAState == model.HAQuiescing {
		logging.Warn("SGFSM", "SUSI on SU idx %d SI idx %d failed, forcing QUIESCED before delete", susi.SU, susi.SI)
		susi.HAState = model.HAQuiesced
		e.Sink.ModifySUSI(susi, model.HAQuiesced)
		return
	}
	susi.FSMState = model.SUSIUnasgn
	e.Sink.DeleteSUSI(susi)

	if e.Recovery == nil {
		return
	}
	su, ok := e.Arena.SU(susi.SU)
	if ok && su.SUFailover == model.SUFailoverEnabled {
		e.Recovery.ReportSUFailover(su)
	}
}

// handleNodeFailCommon frees every SUSI on every SU hosted by node, drains
// the admin-SI pointer and oper-list, and re-runs choose-and-assign.
func (e *Engine) handleNodeFailCommon(sg *model.ServiceGroup, node *model.Node, chooseAndAssign func(*model.ServiceGroup)) {
	for _, suIdx := range sg.SUs {
		su, ok := e.Arena.SU(suIdx)
		if !ok || su.Node != node.Idx {
			continue
		}
		e.freeAllSUSIsOnSU(su)
		sg.RemoveFromOperList(suIdx)
	}
	sg.AdminSI = nil

	if chooseAndAssign != nil {
		chooseAndAssign(sg)
	}
	sg.MaybeReturnToStable()
}
