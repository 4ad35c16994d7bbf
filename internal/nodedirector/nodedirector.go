// Package nodedirector implements the Node Director process: the
// per-node agent that owns the local CLC controllers, folds their
// presence transitions up through the SU aggregator, applies REG_SU and
// D2N_INFO_SU_SI_ASSIGN traffic from the director, and drives the
// node-failover cleanup path as a recovery.ComponentCleaner.
package nodedirector

import (
	"context"
	"sync"

	"amfcore/internal/clc"
	"amfcore/internal/model"
	"amfcore/internal/protocol"
	"amfcore/internal/suagg"
	"amfcore/pkg/logging"
)

// ScriptResolverFor resolves a component's CLC scripts; production wiring
// supplies this from the node's packaged component-type registry.
type ScriptResolverFor = clc.ScriptResolver

// NodeDirector owns one node's view of the model arena and drives its
// component lifecycle controllers.
type NodeDirector struct {
	NodeID string
	Arena  *model.Arena
	Agg    *suagg.Aggregator

	mu          sync.Mutex
	controllers map[model.Index]*clc.Controller
	resolve     ScriptResolverFor
}

// New builds a NodeDirector bound to arena and nodeID, wiring a fresh
// suagg.Aggregator whose SG callback is onSG (typically the director's
// NodeFail/SUSI-reaction entry point delivered back over the D<->ND
// channel as an OPERATION_STATE report, not called in-process across the
// D/ND boundary in production — tests may call it directly).
func New(nodeID string, arena *model.Arena, resolve ScriptResolverFor, onSG suagg.SGCallback) *NodeDirector {
	nd := &NodeDirector{
		NodeID:      nodeID,
		Arena:       arena,
		controllers: make(map[model.Index]*clc.Controller),
		resolve:     resolve,
	}
	nd.Agg = suagg.NewAggregator(arena)
	nd.Agg.OnSG = onSG
	return nd
}

func (nd *NodeDirector) controllerFor(comp *model.Component) *clc.Controller {
	nd.mu.Lock()
	defer nd.mu.Unlock()
	c, ok := nd.controllers[comp.Idx]
	if ok {
		return c
	}
	c = clc.NewController()
	c.NodeID = nd.NodeID
	c.Exec = clc.ProcessExecutor{}
	c.OnTerminal = nd.Agg.ComponentPresenceChanged
	nd.controllers[comp.Idx] = c
	return c
}

// InstantiateComponent drives a component through its CLC INSTANTIATE
// path, folding the result into the SU presence aggregator.
func (nd *NodeDirector) InstantiateComponent(ctx context.Context, comp *model.Component) {
	nd.controllerFor(comp).Instantiate(ctx, comp, nd.resolve)
}

// TerminateComponent drives a component through its CLC TERMINATE path.
func (nd *NodeDirector) TerminateComponent(ctx context.Context, comp *model.Component) {
	nd.controllerFor(comp).Terminate(ctx, comp, nd.resolve)
}

// CleanupForFailover implements recovery.ComponentCleaner: runs the CLC
// CLEANUP path for comp as part of a node-failover termination sweep,
// attributing the error source to the node failover itself.
func (nd *NodeDirector) CleanupForFailover(ctx context.Context, comp *model.Component) error {
	nd.controllerFor(comp).Cleanup(ctx, comp, nil, nd.resolve, model.ErrSrcForcedFailover)
	logging.Info("NodeDirector", "component %s cleaned up for node failover", comp.Name)
	return nil
}

// HandleRegSU applies a REG_SU push from the director: on a failover
// re-registration it prunes the node's SU set (per §4.5); a non-failover
// push changes nothing.
func (nd *NodeDirector) HandleRegSU(node *model.Node, msg protocol.RegSU) []string {
	return protocol.ApplyRegSU(nd.Arena, node, msg)
}

// HandleSUSIAssign applies an inbound D2N_INFO_SU_SI_ASSIGN to the local
// SUSI record and returns the N2D response payload the channel should send
// back, acknowledging the new HA state.
func (nd *NodeDirector) HandleSUSIAssign(susi *model.SUSI, msg protocol.SUSIAssign) protocol.SUSIAssign {
	switch msg.Action {
	case protocol.ActionDelete:
		susi.FSMState = model.SUSIUnasgn
	default:
		susi.HAState = msg.HAState
		susi.FSMState = model.SUSIAsgn
	}
	logging.Debug("NodeDirector", "applied %s for SU %s SI %s HA=%s", msg.Action, msg.SUName, msg.SIName, msg.HAState)
	return protocol.SUSIAssign{
		Action:  msg.Action,
		SUName:  msg.SUName,
		SIName:  msg.SIName,
		HAState: susi.HAState,
	}
}
