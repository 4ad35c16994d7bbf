package model

// ServiceGroup is a redundancy domain.
type ServiceGroup struct {
	Idx Index

	Name string

	RedundancyModel RedundancyModel
	AdminState      AdminState

	FSMState SGFSMState

	SaAmfSGNumPrefInserviceSUs int

	// ActiveMaxSU caps the number of SUs that may carry an ACTIVE assignment
	// for any one SI, used by the N-way-active planner.
	ActiveMaxSU int

	// SUOperList is the set of SUs currently undergoing an operation. Its
	// emptiness, together with AdminSI == nil and FSMState == SGStable,
	// defines when the SG is at rest.
	SUOperList []Index

	// AdminSI is the (at most one) SI under admin operation.
	AdminSI *Index

	SUs []Index
	SIs []Index
}

// IsStable reports whether the SG satisfies the STABLE invariant: FSM state
// is STABLE, the oper-list is empty, and no SI is under admin operation.
func (sg *ServiceGroup) IsStable() bool {
	return sg.FSMState == SGStable && len(sg.SUOperList) == 0 && sg.AdminSI == nil
}

// AddToOperList adds su to the SU-oper-list if not already present.
func (sg *ServiceGroup) AddToOperList(su Index) {
	for _, x := range sg.SUOperList {
		if x == su {
			return
		}
	}
	sg.SUOperList = append(sg.SUOperList, su)
}

// RemoveFromOperList removes su from the SU-oper-list.
func (sg *ServiceGroup) RemoveFromOperList(su Index) {
	out := sg.SUOperList[:0]
	for _, x := range sg.SUOperList {
		if x != su {
			out = append(out, x)
		}
	}
	sg.SUOperList = out
}

// InOperList reports whether su is currently in the SU-oper-list.
func (sg *ServiceGroup) InOperList(su Index) bool {
	for _, x := range sg.SUOperList {
		if x == su {
			return true
		}
	}
	return false
}

// MaybeReturnToStable transitions the SG back to STABLE when the oper-list
// and admin-SI slot have both drained. The same check applies identically
// across all five redundancy models.
func (sg *ServiceGroup) MaybeReturnToStable() {
	if len(sg.SUOperList) == 0 && sg.AdminSI == nil {
		sg.FSMState = SGStable
	}
}
