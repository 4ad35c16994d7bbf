package sgfsm

import "amfcore/internal/model"

// nWay is the N-way redundancy model: exactly one SU carries ACTIVE for a
// given SI, and every other in-service SU with slack carries STANDBY for
// it.
type nWay struct {
	*Engine
}

func newNWay(e *Engine) Handler { return &nWay{Engine: e} }

func (h *nWay) chooseAndAssign(sg *model.ServiceGroup) bool {
	issuedAny := false
	for _, siIdx := range sg.SIs {
		si, ok := h.Arena.SI(siIdx)
		if !ok || !eligibleForAssignment(si, sg) {
			continue
		}

		if si.ActiveCurrSU(h.Arena.SUSI) == 0 {
			if su := h.pickCandidate(sg, si); su != nil {
				h.issue(sg, su, si, model.HAActive)
				issuedAny = true
			}
		}

		for _, suIdx := range sg.SUs {
			su, ok := h.Arena.SU(suIdx)
			if !ok || !h.hasAssignmentSlack(su) || si.AssignedTo(su.Idx, h.Arena.SUSI) {
				continue
			}
			h.issue(sg, su, si, model.HAStandby)
			issuedAny = true
		}
	}

	if issuedAny && sg.FSMState == model.SGStable {
		sg.FSMState = model.SGRealign
	}
	return issuedAny
}

func (h *nWay) pickCandidate(sg *model.ServiceGroup, si *model.ServiceInstance) *model.ServiceUnit {
	for _, suIdx := range si.RankedSU {
		if su, ok := h.Arena.SU(suIdx); ok && h.hasAssignmentSlack(su) {
			return su
		}
	}
	for _, suIdx := range sg.SUs {
		if su, ok := h.Arena.SU(suIdx); ok && h.hasAssignmentSlack(su) {
			return su
		}
	}
	return nil
}

func (h *nWay) issue(sg *model.ServiceGroup, su *model.ServiceUnit, si *model.ServiceInstance, ha model.HAState) {
	susi := &model.SUSI{SU: su.Idx, SI: si.Idx, HAState: ha, FSMState: model.SUSIAsgn}
	idx := h.Arena.AddSUSI(susi)
	susi.Idx = idx
	su.AddSUSI(idx)
	si.SUSIs = append(si.SUSIs, idx)
	sg.AddToOperList(su.Idx)
	h.Sink.IssueSUSI(susi)
}

func (h *nWay) NewSI(sg *model.ServiceGroup, si *model.ServiceInstance) { h.chooseAndAssign(sg) }

func (h *nWay) Realign(sg *model.ServiceGroup) {
	h.chooseAndAssign(sg)
	sg.MaybeReturnToStable()
}

func (h *nWay) SUFault(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.handleSUFaultCommon(sg, su)
}

func (h *nWay) SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit) { h.chooseAndAssign(sg) }

func (h *nWay) SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSISuccessCommon(sg, susi, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *nWay) SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSIFailureCommon(sg, susi)
}

func (h *nWay) NodeFail(sg *model.ServiceGroup, node *model.Node) {
	h.handleNodeFailCommon(sg, node, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *nWay) AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error {
	return handleSGAdminChange(h.Engine, sg, op)
}
