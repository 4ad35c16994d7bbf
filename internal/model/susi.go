package model

// AdminOpID enumerates the SU admin operations.
type AdminOpID int

const (
	AdminOpNone AdminOpID = iota
	AdminOpUnlock
	AdminOpLock
	AdminOpShutdown
	AdminOpLockInstantiation
	AdminOpUnlockInstantiation
	AdminOpRepaired
)

func (o AdminOpID) String() string {
	switch o {
	case AdminOpUnlock:
		return "UNLOCK"
	case AdminOpLock:
		return "LOCK"
	case AdminOpShutdown:
		return "SHUTDOWN"
	case AdminOpLockInstantiation:
		return "LOCK_INSTANTIATION"
	case AdminOpUnlockInstantiation:
		return "UNLOCK_INSTANTIATION"
	case AdminOpRepaired:
		return "REPAIRED"
	default:
		return "NONE"
	}
}

// SUSI is the (SU, SI) assignment record.
type SUSI struct {
	Idx Index

	SU Index
	SI Index

	HAState  HAState
	FSMState SUSIFSMState

	// PendingDelete marks a SUSI queued for removal once its current FSM
	// transition (e.g. a forced QUIESCED) completes, as part of a forced
	// quiesced-then-delete sequence.
	PendingDelete bool
}

// HAChanged centralizes the "did the HA state change" predicate: a
// transition from QUIESCING to QUIESCED is NOT treated as a no-op, because
// QUIESCING always completes to QUIESCED and callers that care about
// "did the wire-visible HA state change" must still notify on that edge.
// Everywhere in this codebase that needs the answer calls this function
// instead of comparing HAState fields directly.
func HAChanged(oldState, newState HAState) bool {
	return oldState != newState
}

// CanTransitionToFreed reports whether a SUSI in UNASGN may be freed. A
// SUSI in UNASGN may only transition to freed.
func (s *SUSI) CanTransitionToFreed() bool {
	return s.FSMState == SUSIUnasgn
}
