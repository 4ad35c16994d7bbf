package sgfsm

import "amfcore/internal/model"

// chooseAndAssignNWayActive implements the N-way-active assignment
// planner: for every eligible SI, a first pass honors saAmfSIRankedSU
// preference order, then a second pass sweeps all SG SUs in insertion
// order without rank preference, skipping any SU that already carries an
// assignment (for this or any other SI). Both passes stop once the SI's
// active-max-SU cap is reached. Returns true if any assignment was
// issued, the trigger for STABLE -> SG_REALIGN.
func (e *Engine) chooseAndAssignNWayActive(sg *model.ServiceGroup) bool {
	issuedAny := false
	for _, siIdx := range sg.SIs {
		si, ok := e.Arena.SI(siIdx)
		if !ok || !eligibleForAssignment(si, sg) {
			continue
		}

		activeCount := si.ActiveCurrSU(e.Arena.SUSI)
		if activeCount >= sg.ActiveMaxSU {
			continue
		}

		for _, suIdx := range si.RankedSU {
			if activeCount >= sg.ActiveMaxSU {
				break
			}
			su, ok := e.Arena.SU(suIdx)
			if !ok || !e.hasAssignmentSlack(su) || si.AssignedTo(su.Idx, e.Arena.SUSI) {
				continue
			}
			e.issueActiveSUSI(sg, su, si)
			activeCount++
			issuedAny = true
		}

		for _, suIdx := range sg.SUs {
			if activeCount >= sg.ActiveMaxSU {
				break
			}
			su, ok := e.Arena.SU(suIdx)
			if !ok || !e.hasAssignmentSlack(su) || su.HasAssignments() {
				continue
			}
			e.issueActiveSUSI(sg, su, si)
			activeCount++
			issuedAny = true
		}
	}

	if issuedAny && sg.FSMState == model.SGStable {
		sg.FSMState = model.SGRealign
	}
	return issuedAny
}

func eligibleForAssignment(si *model.ServiceInstance, sg *model.ServiceGroup) bool {
	if si.SG != sg.Idx {
		return false
	}
	return si.IsAssignable()
}

func (e *Engine) hasAssignmentSlack(su *model.ServiceUnit) bool {
	return su.Readiness == model.ReadinessInService
}

func (e *Engine) issueActiveSUSI(sg *model.ServiceGroup, su *model.ServiceUnit, si *model.ServiceInstance) {
	susi := &model.SUSI{
		SU:       su.Idx,
		SI:       si.Idx,
		HAState:  model.HAActive,
		FSMState: model.SUSIAsgn,
	}
	idx := e.Arena.AddSUSI(susi)
	susi.Idx = idx
	su.AddSUSI(idx)
	si.SUSIs = append(si.SUSIs, idx)
	sg.AddToOperList(su.Idx)
	e.Sink.IssueSUSI(susi)
}
