package sgfsm

import "amfcore/internal/model"

// twoN is the 2N redundancy model: exactly one SU carries ACTIVE and one
// carries STANDBY for every SI in the SG.
type twoN struct {
	*Engine
}

func newTwoN(e *Engine) Handler { return &twoN{Engine: e} }

func (h *twoN) chooseAndAssign(sg *model.ServiceGroup) bool {
	activeSU, standbySU := h.currentRoles(sg)
	issuedAny := false

	if activeSU == nil {
		if su := h.pickInServiceSU(sg, standbySU); su != nil {
			h.assignAllSIs(sg, su, model.HAActive)
			activeSU = su
			issuedAny = true
		}
	}
	if standbySU == nil {
		if su := h.pickInServiceSU(sg, activeSU); su != nil {
			h.assignAllSIs(sg, su, model.HAStandby)
			issuedAny = true
		}
	}

	if issuedAny && sg.FSMState == model.SGStable {
		sg.FSMState = model.SGRealign
	}
	return issuedAny
}

func (h *twoN) currentRoles(sg *model.ServiceGroup) (active, standby *model.ServiceUnit) {
	for _, suIdx := range sg.SUs {
		su, ok := h.Arena.SU(suIdx)
		if !ok || len(su.SUSIs) == 0 {
			continue
		}
		susi, ok := h.Arena.SUSI(su.SUSIs[0])
		if !ok {
			continue
		}
		switch susi.HAState {
		case model.HAActive:
			active = su
		case model.HAStandby:
			standby = su
		}
	}
	return active, standby
}

func (h *twoN) pickInServiceSU(sg *model.ServiceGroup, exclude *model.ServiceUnit) *model.ServiceUnit {
	for _, suIdx := range sg.SUs {
		su, ok := h.Arena.SU(suIdx)
		if !ok || !h.hasAssignmentSlack(su) {
			continue
		}
		if exclude != nil && su.Idx == exclude.Idx {
			continue
		}
		if len(su.SUSIs) > 0 {
			continue
		}
		return su
	}
	return nil
}

func (h *twoN) assignAllSIs(sg *model.ServiceGroup, su *model.ServiceUnit, ha model.HAState) {
	for _, siIdx := range sg.SIs {
		si, ok := h.Arena.SI(siIdx)
		if !ok || !eligibleForAssignment(si, sg) {
			continue
		}
		susi := &model.SUSI{SU: su.Idx, SI: si.Idx, HAState: ha, FSMState: model.SUSIAsgn}
		idx := h.Arena.AddSUSI(susi)
		susi.Idx = idx
		su.AddSUSI(idx)
		si.SUSIs = append(si.SUSIs, idx)
		h.Sink.IssueSUSI(susi)
	}
	sg.AddToOperList(su.Idx)
}

func (h *twoN) NewSI(sg *model.ServiceGroup, si *model.ServiceInstance) { h.chooseAndAssign(sg) }

func (h *twoN) Realign(sg *model.ServiceGroup) {
	h.chooseAndAssign(sg)
	sg.MaybeReturnToStable()
}

func (h *twoN) SUFault(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.handleSUFaultCommon(sg, su)
}

func (h *twoN) SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit) { h.chooseAndAssign(sg) }

func (h *twoN) SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSISuccessCommon(sg, susi, func(sg *model.ServiceGroup) {
		h.promoteStandbyOnActiveLoss(sg)
		h.chooseAndAssign(sg)
	})
}

func (h *twoN) SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSIFailureCommon(sg, susi)
}

func (h *twoN) NodeFail(sg *model.ServiceGroup, node *model.Node) {
	h.handleNodeFailCommon(sg, node, func(sg *model.ServiceGroup) {
		h.promoteStandbyOnActiveLoss(sg)
		h.chooseAndAssign(sg)
	})
}

func (h *twoN) AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error {
	return handleSGAdminChange(h.Engine, sg, op)
}

// promoteStandbyOnActiveLoss promotes the surviving STANDBY SU to ACTIVE
// when the prior ACTIVE SU's assignments have all been freed, the 2N role
// switch completing the fault sequence.
func (h *twoN) promoteStandbyOnActiveLoss(sg *model.ServiceGroup) {
	active, standby := h.currentRoles(sg)
	if active != nil || standby == nil {
		return
	}
	for _, idx := range standby.SUSIs {
		susi, ok := h.Arena.SUSI(idx)
		if !ok {
			continue
		}
		susi.HAState = model.HAActive
		h.Sink.ModifySUSI(susi, model.HAActive)
	}
}
