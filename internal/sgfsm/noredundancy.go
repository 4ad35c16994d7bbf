package sgfsm

import "amfcore/internal/model"

// noRedundancy is the no-redundancy model: each SI gets exactly one
// ACTIVE SU and no standby.
type noRedundancy struct {
	*Engine
}

func newNoRedundancy(e *Engine) Handler { return &noRedundancy{Engine: e} }

func (h *noRedundancy) chooseAndAssign(sg *model.ServiceGroup) bool {
	issuedAny := false
	for _, siIdx := range sg.SIs {
		si, ok := h.Arena.SI(siIdx)
		if !ok || !eligibleForAssignment(si, sg) || si.ActiveCurrSU(h.Arena.SUSI) > 0 {
			continue
		}
		su := h.pickUnassignedSU(sg)
		if su == nil {
			continue
		}
		susi := &model.SUSI{SU: su.Idx, SI: si.Idx, HAState: model.HAActive, FSMState: model.SUSIAsgn}
		idx := h.Arena.AddSUSI(susi)
		susi.Idx = idx
		su.AddSUSI(idx)
		si.SUSIs = append(si.SUSIs, idx)
		sg.AddToOperList(su.Idx)
		h.Sink.IssueSUSI(susi)
		issuedAny = true
	}
	if issuedAny && sg.FSMState == model.SGStable {
		sg.FSMState = model.SGRealign
	}
	return issuedAny
}

func (h *noRedundancy) pickUnassignedSU(sg *model.ServiceGroup) *model.ServiceUnit {
	for _, suIdx := range sg.SUs {
		su, ok := h.Arena.SU(suIdx)
		if ok && h.hasAssignmentSlack(su) && !su.HasAssignments() {
			return su
		}
	}
	return nil
}

func (h *noRedundancy) NewSI(sg *model.ServiceGroup, si *model.ServiceInstance) {
	h.chooseAndAssign(sg)
}

func (h *noRedundancy) Realign(sg *model.ServiceGroup) {
	h.chooseAndAssign(sg)
	sg.MaybeReturnToStable()
}

func (h *noRedundancy) SUFault(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.handleSUFaultCommon(sg, su)
}

func (h *noRedundancy) SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.chooseAndAssign(sg)
}

func (h *noRedundancy) SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSISuccessCommon(sg, susi, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *noRedundancy) SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSIFailureCommon(sg, susi)
}

func (h *noRedundancy) NodeFail(sg *model.ServiceGroup, node *model.Node) {
	h.handleNodeFailCommon(sg, node, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *noRedundancy) AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error {
	return handleSGAdminChange(h.Engine, sg, op)
}
