package recovery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// ComponentCleaner drives a single application component through its CLC
// TERMINATE/CLEANUP path as part of node-failover termination. The real
// implementation is the node director's CLC executor.
type ComponentCleaner interface {
	CleanupForFailover(ctx context.Context, comp *model.Component) error
}

// Terminator runs the node-failover termination flow described in §4.4:
// set term_state, clean every application component concurrently, and
// once all have reached UNINSTANTIATED report NODE_FAILOVER upward.
type Terminator struct {
	Arena   *model.Arena
	Cleaner ComponentCleaner
}

// NewTerminator builds a Terminator bound to arena and cleaner.
func NewTerminator(arena *model.Arena, cleaner ComponentCleaner) *Terminator {
	return &Terminator{Arena: arena, Cleaner: cleaner}
}

// Terminate marks node as failover-terminating, cleans every application
// component (never middleware ones, which survive the cycle), and reports
// back via onDone once the whole set has reached UNINSTANTIATED. onDone
// receives false if any component's cleanup failed and the flow had to
// abandon the clean termination path; the caller still proceeds as if
// NODE_FAILOVER had occurred (§4.4 does not offer a retry here).
func (t *Terminator) Terminate(ctx context.Context, node *model.Node, onDone func(node *model.Node, clean bool)) {
	node.TermState = model.TermNodeFailoverTerminating

	g, gctx := errgroup.WithContext(ctx)
	for _, suIdx := range node.ApplicationSUs {
		su, ok := t.Arena.SU(suIdx)
		if !ok {
			continue
		}
		for _, compIdx := range su.Components {
			comp, ok := t.Arena.Component(compIdx)
			if !ok {
				continue
			}
			comp := comp
			g.Go(func() error {
				return t.Cleaner.CleanupForFailover(gctx, comp)
			})
		}
	}

	clean := true
	if err := g.Wait(); err != nil {
		logging.Error("Recovery", err, "node %s failover cleanup did not complete cleanly", node.NodeID)
		clean = false
	}

	for _, suIdx := range node.ApplicationSUs {
		su, ok := t.Arena.SU(suIdx)
		if !ok {
			continue
		}
		su.Presence = model.PresenceUninstantiated
	}

	logging.Info("Recovery", "node %s application components terminated, reporting NODE_FAILOVER", node.NodeID)
	if onDone != nil {
		onDone(node, clean)
	}
}

// DropApplicationSUSIs frees every non-middleware SUSI hosted on node, the
// last step of NODE_FAILOVER before the SG FSM's NodeFail reaction
// re-plans. Middleware SUSI state is left untouched (middleware SUs do not
// terminate across a node failover the same way application ones do).
func DropApplicationSUSIs(arena *model.Arena, node *model.Node) {
	for _, suIdx := range node.ApplicationSUs {
		su, ok := arena.SU(suIdx)
		if !ok {
			continue
		}
		for _, susiIdx := range append([]model.Index(nil), su.SUSIs...) {
			arena.RemoveSUSI(susiIdx)
			su.RemoveSUSI(susiIdx)
		}
	}
}

// RebootDecision reports whether the director should emit a single
// D2N_REBOOT for node after NODE_FAILOVER: true when
// saAmfNodeAutoRepair is set, otherwise the node is left disabled and the
// caller should only log.
func RebootDecision(node *model.Node) bool {
	return node.SaAmfNodeAutoRepair
}
