package sgfsm

import "amfcore/internal/model"

// nWayActive is the N-way-active redundancy model: any number of SUs may
// carry an ACTIVE assignment for the same SI, up to the SG's ActiveMaxSU.
type nWayActive struct {
	*Engine
}

func newNWayActive(e *Engine) Handler { return &nWayActive{Engine: e} }

func (h *nWayActive) NewSI(sg *model.ServiceGroup, si *model.ServiceInstance) {
	h.chooseAndAssignNWayActive(sg)
}

func (h *nWayActive) Realign(sg *model.ServiceGroup) {
	h.chooseAndAssignNWayActive(sg)
	sg.MaybeReturnToStable()
}

func (h *nWayActive) SUFault(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.handleSUFaultCommon(sg, su)
}

func (h *nWayActive) SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit) {
	h.chooseAndAssignNWayActive(sg)
}

func (h *nWayActive) SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSISuccessCommon(sg, susi, func(sg *model.ServiceGroup) { h.chooseAndAssignNWayActive(sg) })
}

func (h *nWayActive) SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI) {
	h.handleSUSIFailureCommon(sg, susi)
}

func (h *nWayActive) NodeFail(sg *model.ServiceGroup, node *model.Node) {
	h.handleNodeFailCommon(sg, node, func(sg *model.ServiceGroup) { h.chooseAndAssignNWayActive(sg) })
}

func (h *nWayActive) AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error {
	return handleSGAdminChange(h.Engine, sg, op)
}
