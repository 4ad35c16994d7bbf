package model

// ServiceInstance is a workload to be assigned.
type ServiceInstance struct {
	Idx Index

	Name string

	AdminState AdminState
	Rank       int

	MaxNumCSI int
	NumCSI    int

	PreferredActiveSUs  int
	PreferredStandbySUs int

	DependencyState SIDependencyState

	CSIs  []Index
	SUSIs []Index

	// RankedSU lists SUs in saAmfSIRankedSU preference order, used by the
	// N-way-active planner's first pass.
	RankedSU []Index

	// DependentSIs lists SIs that depend on this one (SI-SI dependency).
	DependentSIs []Index

	SG Index
}

// IsAssignable reports whether this SI is eligible for new assignment
// consideration by the N-way-active planner: admin-UNLOCKED, fully
// CSI-configured, and not blocked by an SI-SI dependency.
func (si *ServiceInstance) IsAssignable() bool {
	if si.AdminState != AdminUnlocked {
		return false
	}
	if si.NumCSI != si.MaxNumCSI {
		return false
	}
	if si.DependencyState == SIDepSponsorUnassigned || si.DependencyState == SIDepUnassigningDueToDep {
		return false
	}
	return true
}

// ActiveCurrSU counts how many SUSI records for this SI currently carry an
// ACTIVE HA state, given an index->record lookup function.
func (si *ServiceInstance) ActiveCurrSU(lookup func(Index) (*SUSI, bool)) int {
	n := 0
	for _, idx := range si.SUSIs {
		s, ok := lookup(idx)
		if ok && s.HAState == HAActive {
			n++
		}
	}
	return n
}

// AssignedTo reports whether su already carries a SUSI for this SI.
func (si *ServiceInstance) AssignedTo(su Index, lookup func(Index) (*SUSI, bool)) bool {
	for _, idx := range si.SUSIs {
		s, ok := lookup(idx)
		if ok && s.SU == su {
			return true
		}
	}
	return false
}
