package sgfsm

import (
	"amfcore/internal/amferrors"
	"amfcore/internal/model"
)

// SUAdminOpOutcome is the result of consulting the SU admin-op policy
// table, before anything is actually driven through the SG FSM.
type SUAdminOpOutcome int

const (
	// OutcomeRun proceeds through the SG FSM.
	OutcomeRun SUAdminOpOutcome = iota
	// OutcomeNoOp is a duplicate invocation with no side effects.
	OutcomeNoOp
	// OutcomeErr is disallowed from the SU's current admin state.
	OutcomeErr
	// OutcomeInterruptsShutdown is OutcomeRun, but the caller must first
	// fail the in-flight SHUTDOWN invocation with SA_AIS_ERR_INTERRUPT.
	OutcomeInterruptsShutdown
)

// SUAdminOpPolicy looks up the policy-table cell for (current admin
// state, requested op). All admin op ids other than the six listed here
// return SA_AIS_ERR_NOT_SUPPORTED before this function is ever consulted.
func SUAdminOpPolicy(from model.AdminState, op model.AdminOpID) SUAdminOpOutcome {
	switch from {
	case model.AdminUnlocked:
		switch op {
		case model.AdminOpUnlock:
			return OutcomeNoOp
		case model.AdminOpLock, model.AdminOpShutdown, model.AdminOpRepaired:
			return OutcomeRun
		default:
			return OutcomeErr
		}
	case model.AdminLocked:
		switch op {
		case model.AdminOpLock:
			return OutcomeNoOp
		case model.AdminOpUnlock, model.AdminOpLockInstantiation, model.AdminOpUnlockInstantiation, model.AdminOpRepaired:
			return OutcomeRun
		default:
			return OutcomeErr
		}
	case model.AdminLockedInstantiation:
		switch op {
		case model.AdminOpLockInstantiation:
			return OutcomeNoOp
		case model.AdminOpUnlockInstantiation, model.AdminOpRepaired:
			return OutcomeRun
		default:
			return OutcomeErr
		}
	case model.AdminShuttingDown:
		if op == model.AdminOpLock {
			return OutcomeInterruptsShutdown
		}
		return OutcomeErr
	default:
		return OutcomeErr
	}
}

// ApplySUAdminOp resolves a requested admin op against su's current state,
// failing an in-flight SHUTDOWN with INTERRUPT when a LOCK preempts it,
// and returns the error the caller must surface, or nil to proceed.
func ApplySUAdminOp(su *model.ServiceUnit, op model.AdminOpID, failInvocation func(invocation uint64)) error {
	outcome := SUAdminOpPolicy(su.AdminState, op)
	switch outcome {
	case OutcomeNoOp:
		return amferrors.Sentinel(amferrors.NoOp)
	case OutcomeErr:
		return amferrors.Sentinel(amferrors.BadOperation)
	case OutcomeInterruptsShutdown:
		if failInvocation != nil && su.PendingCallbackInvocation != 0 {
			failInvocation(su.PendingCallbackInvocation)
		}
		su.AdminState = model.AdminLocked
		return nil
	default:
		su.AdminState = adminStateForOp(op, su.AdminState)
		return nil
	}
}

func adminStateForOp(op model.AdminOpID, current model.AdminState) model.AdminState {
	switch op {
	case model.AdminOpUnlock:
		return model.AdminUnlocked
	case model.AdminOpLock:
		return model.AdminLocked
	case model.AdminOpShutdown:
		return model.AdminShuttingDown
	case model.AdminOpLockInstantiation:
		return model.AdminLockedInstantiation
	case model.AdminOpUnlockInstantiation:
		return model.AdminUnlocked
	case model.AdminOpRepaired:
		return current
	default:
		return current
	}
}

// handleSGLockShutdownCommon implements the SG-level admin lock/shutdown
// reaction shared across all five models: every assigned SU receives
// modify-QUIESCED (lock) or modify-QUIESCING (shutdown), is added to the
// oper-list, and the SG moves to SG_ADMIN. A shutdown's admin state is
// only promoted to LOCKED once the oper-list has fully drained.
func (e *Engine) handleSGLockShutdownCommon(sg *model.ServiceGroup, shutdown bool) {
	for _, suIdx := range sg.SUs {
		su, ok := e.Arena.SU(suIdx)
		if !ok || !su.HasAssignments() {
			continue
		}
		target := model.HAQuiesced
		if shutdown {
			target = model.HAQuiescing
		}
		for _, idx := range su.SUSIs {
			susi, ok := e.Arena.SUSI(idx)
			if !ok {
				continue
			}
			susi.HAState = target
			e.Sink.ModifySUSI(susi, target)
		}
		sg.AddToOperList(suIdx)
	}
	sg.FSMState = model.SGAdmin
}

// handleSGAdminChange is the shared AdminChange reaction used by every
// model: LOCK and SHUTDOWN walk the SG's assigned SUs via
// handleSGLockShutdownCommon; any other admin op id at SG scope is
// unsupported.
func handleSGAdminChange(e *Engine, sg *model.ServiceGroup, op model.AdminOpID) error {
	switch op {
	case model.AdminOpLock:
		e.handleSGLockShutdownCommon(sg, false)
		return nil
	case model.AdminOpShutdown:
		e.handleSGLockShutdownCommon(sg, true)
		return nil
	default:
		return amferrors.Sentinel(amferrors.BadOperation)
	}
}
