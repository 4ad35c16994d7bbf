package sgfsm

import "amfcore/internal/model"

// nPlusM is the N+M redundancy model: each SI gets one ACTIVE assignment
// on an in-service SU that carries no other assignment, rank-preferred SUs
// first. No STANDBY assignments are issued, and the SG's ActiveMaxSU is
// not consulted.
type nPlusM struct {
	*Engine
}

func newNPlusM(e *Engine) Handler { return &nPlusM{Engine: e} }

func (h *nPlusM) chooseAndAssign(sg *model.ServiceGroup) bool {
	issuedAny := false
	for _, siIdx := range sg.SIs {
		si, ok := h.Arena.SI(siIdx)
		if !ok || !eligibleForAssignment(si, sg) {
			continue
		}
		if si.ActiveCurrSU(h.Arena.SUSI) > 0 {
			continue
		}
		su := h.pickUnassignedActiveCapableSU(sg, si)
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

func (h *nPlusM) pickUnassignedActiveCapableSU(sg *model.ServiceGroup, si *model.ServiceInstance) *model.ServiceUnit {
	for _, suIdx := range si.RankedSU {
		if su, ok := h.Arena.SU(suIdx); ok && h.hasAssignmentSlack(su) && !su.HasAssignments() {
			return su
		}
	}
	for _, suIdx := range sg.SUs {
		su, ok := h.Arena.SU(suIdx)
		if ok && h.hasAssignmentSlack(su) && !su.HasAssignments() {
			return su
		}
	}
	return nil
}

func (h *nPlusM) NewSI(sg *model.ServiceGroup, si *model.ServiceInstance) { h.chooseAndAssign(sg) }

func (h *nPlusM) Realign(sg *model.ServiceGroup) {
	h.chooseAndAssign(sg)
	sg.MaybeReturnToStable()
}

func (h *nPlusM) SUFault(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.handleSUFaultCommon(sg, su)
}

func (h *nPlusM) SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit) { h.chooseAndAssign(sg) }

func (h *nPlusM) SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSISuccessCommon(sg, susi, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *nPlusM) SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSIFailureCommon(sg, susi)
}

func (h *nPlusM) NodeFail(sg *model.ServiceGroup, node *model.Node) {
	h.handleNodeFailCommon(sg, node, func(sg *model.ServiceGroup) { h.chooseAndAssign(sg) })
}

func (h *nPlusM) AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error {
	return handleSGAdminChange(h.Engine, sg, op)
}
