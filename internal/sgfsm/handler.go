package sgfsm

import "amfcore/internal/model"

// Handler is the per-redundancy-model vtable: eight reactions, one per
// Event, selected by the SG's stored RedundancyModel tag.
type Handler interface {
	NewSI(sg *model.ServiceGroup, si *model.ServiceInstance)
	SUFault(sg *model.ServiceGroup, su *model.ServiceUnit)
	SUInsvc(sg *model.ServiceGroup, su *model.ServiceUnit)
	SUSISuccess(sg *model.ServiceGroup, susi *model.SUSI)
	SUSIFailure(sg *model.ServiceGroup, susi *model.SUSI)
	Realign(sg *model.ServiceGroup)
	NodeFail(sg *model.ServiceGroup, node *model.Node)
	AdminChange(sg *model.ServiceGroup, op model.AdminOpID) error
}

// Registry selects the Handler for a given redundancy model.
type Registry struct {
	handlers map[model.RedundancyModel]Handler
}

// NewRegistry builds a Registry with all five redundancy models wired
// against a shared Engine.
func NewRegistry(engine *Engine) *Registry {
	r := &Registry{handlers: make(map[model.RedundancyModel]Handler)}
	r.handlers[model.Red2N] = newTwoN(engine)
	r.handlers[model.RedNPlusM] = newNPlusM(engine)
	r.handlers[model.RedNWay] = newNWay(engine)
	r.handlers[model.RedNWayActive] = newNWayActive(engine)
	r.handlers[model.RedNoRedundancy] = newNoRedundancy(engine)
	return r
}

// For returns the Handler bound to sg's redundancy model.
func (r *Registry) For(sg *model.ServiceGroup) Handler {
	return r.handlers[sg.RedundancyModel]
}

// Dispatch routes event to the handler selected by sg.RedundancyModel.
// payload carries the event-specific argument (SI/SU/SUSI/Node) and is
// nil for Realign.
func (r *Registry) Dispatch(sg *model.ServiceGroup, event Event, payload interface{}) error {
	h := r.For(sg)
	if h == nil {
		return nil
	}
	switch event {
	case EventNewSI:
		h.NewSI(sg, payload.(*model.ServiceInstance))
	case EventSUFault:
		h.SUFault(sg, payload.(*model.ServiceUnit))
	case EventSUInsvc:
		h.SUInsvc(sg, payload.(*model.ServiceUnit))
	case EventSUSISuccess:
		h.SUSISuccess(sg, payload.(*model.SUSI))
	case EventSUSIFailure:
		h.SUSIFailure(sg, payload.(*model.SUSI))
	case EventRealign:
		h.Realign(sg)
	case EventNodeFail:
		h.NodeFail(sg, payload.(*model.Node))
	case EventAdminChange:
		return h.AdminChange(sg, payload.(model.AdminOpID))
	}
	return nil
}
