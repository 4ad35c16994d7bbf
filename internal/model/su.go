package model

// ServiceUnit is a deployable unit.
type ServiceUnit struct {
	Idx Index

	Name string

	AdminState AdminState
	OperState  OperState
	Readiness  Readiness
	Presence   Presence

	SaAmfSUPreInstantiable bool
	SUFailover             SUFailoverPolicy

	CurrentActiveSICount  int
	CurrentStandbySICount int

	RestartCount int
	TermState    TermState
	SwitchState  SwitchState

	// PendingCallback holds the invocation+admin-op id of an admin operation
	// awaiting this SU's response, or (0,0) if none.
	PendingCallbackInvocation uint64
	PendingCallbackAdminOp    AdminOpID

	SG   Index
	Node Index

	Components []Index
	SUSIs      []Index

	Failed bool
}

// HasAssignments reports whether this SU has any live SUSI records. An
// empty SUSI list with AdminState LOCKED means the lock admin operation
// completes immediately with nothing left to quiesce.
func (su *ServiceUnit) HasAssignments() bool {
	return len(su.SUSIs) > 0
}

// AddSUSI records a new SUSI index against this SU.
func (su *ServiceUnit) AddSUSI(idx Index) {
	su.SUSIs = append(su.SUSIs, idx)
}

// RemoveSUSI drops a SUSI index from this SU's assignment list.
func (su *ServiceUnit) RemoveSUSI(idx Index) {
	out := su.SUSIs[:0]
	for _, x := range su.SUSIs {
		if x != idx {
			out = append(out, x)
		}
	}
	su.SUSIs = out
}

// RecomputeReadiness derives Readiness from OperState/Presence/AdminState.
func (su *ServiceUnit) RecomputeReadiness() {
	switch {
	case su.AdminState == AdminShuttingDown:
		su.Readiness = ReadinessStopping
	case su.OperState == OperEnabled && su.AdminState == AdminUnlocked && su.Presence == PresenceInstantiated:
		su.Readiness = ReadinessInService
	default:
		su.Readiness = ReadinessOutOfService
	}
}
