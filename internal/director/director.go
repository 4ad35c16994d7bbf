// Package director implements the Director process: the active/standby
// singleton that owns the cluster-wide model arena, drives the SG FSM
// registry in reaction to node and SUSI events, applies the admin-op
// policy table, and orchestrates the §4.4 node-failover sequence.
package director

import (
	"context"

	"amfcore/internal/amferrors"
	"amfcore/internal/metrics"
	"amfcore/internal/model"
	"amfcore/internal/protocol"
	"amfcore/internal/recovery"
	"amfcore/internal/sgfsm"
	"amfcore/pkg/logging"
)

// Role is the director's active/standby role, following the teacher's
// two-process singleton pattern (only one director ever drives the SG
// FSM registry at a time).
type Role int

const (
	RoleStandby Role = iota
	RoleActive
)

// Director bundles every collaborator the Director process needs: the
// arena, the SG FSM registry and engine, the escalation ladder, and the
// D<->ND protocol registry.
type Director struct {
	Arena    *model.Arena
	Registry *sgfsm.Registry
	Engine   *sgfsm.Engine
	Ladder   *recovery.Ladder
	Protocol *protocol.Registry
	Metrics  *metrics.Registry

	role Role

	// highestClientID tracks the highest IMMA client id ever issued
	// cluster-wide, reseeded to every node on a standby->active switch so
	// resurrecting handles don't collide with freshly issued ones (§4.5).
	highestClientID uint32
}

// New builds a Director wired against arena, starting as standby. Callers
// build the sgfsm.Engine (with its protocol.AssignmentSink and the
// Ladder as its FailoverReporter) and pass it in fully assembled, since
// the wiring order (ladder before engine, engine before registry) matters.
func New(arena *model.Arena, engine *sgfsm.Engine, ladder *recovery.Ladder, protoRegistry *protocol.Registry) *Director {
	return &Director{
		Arena:    arena,
		Registry: sgfsm.NewRegistry(engine),
		Engine:   engine,
		Ladder:   ladder,
		Protocol: protoRegistry,
		role:     RoleStandby,
	}
}

// Role reports the director's current role.
func (d *Director) Role() Role { return d.role }

// WithMetrics binds a metrics.Registry for escalation/SG-state reporting.
// Optional: a nil Metrics field disables observation entirely.
func (d *Director) WithMetrics(m *metrics.Registry) *Director {
	d.Metrics = m
	return d
}

// PromoteToActive performs the standby->active role switch: resend every
// unacked outbound envelope on every node channel (in case the previous
// active died mid-flight), then seed a fresh CLIENT_HIGH so resurrecting
// IMMA handles never collide with ids issued after the switch.
func (d *Director) PromoteToActive() {
	d.role = RoleActive
	d.Protocol.ResendAll()
	for _, c := range d.Protocol.All() {
		if _, err := c.SeedClientHigh(d.highestClientID); err != nil {
			logging.Error("Director", err, "failed seeding CLIENT_HIGH to node %s on promotion", c.NodeID)
		}
	}
	logging.Info("Director", "promoted to active, resent %d channels and reseeded client-high=%d", len(d.Protocol.All()), d.highestClientID)
}

// NoteClientID records the highest IMMA client id issued so far, fed by
// the node directors' REG_SU/OI_INIT traffic.
func (d *Director) NoteClientID(id uint32) {
	if id > d.highestClientID {
		d.highestClientID = id
	}
}

// ApplySUAdminOp applies an admin operation to su, driving the SG FSM's
// lock/shutdown reaction on success per the §6 policy table.
func (d *Director) ApplySUAdminOp(su *model.ServiceUnit, op model.AdminOpID, failInvocation func(invocation uint64)) error {
	if node, ok := d.Arena.Node(su.Node); ok && !node.IsAdminOpAllowed() {
		return amferrors.New(amferrors.TryAgain, "ApplySUAdminOp", nil)
	}
	if err := sgfsm.ApplySUAdminOp(su, op, failInvocation); err != nil {
		if amferrors.CodeOf(err) == amferrors.NoOp {
			return nil
		}
		return err
	}

	sg, ok := d.Arena.SG(su.SG)
	if !ok {
		return amferrors.New(amferrors.NotExist, "ApplySUAdminOp", nil)
	}

	switch op {
	case model.AdminOpLock, model.AdminOpShutdown:
		return d.Registry.Dispatch(sg, sgfsm.EventAdminChange, op)
	case model.AdminOpUnlock, model.AdminOpUnlockInstantiation:
		return d.Registry.Dispatch(sg, sgfsm.EventAdminChange, op)
	default:
		return d.Registry.Dispatch(sg, sgfsm.EventAdminChange, op)
	}
}

// ApplyNodeAdminOp refuses a node-level admin op with TRY_AGAIN while the
// node's SUs are still reacting to an earlier admin op (SUCntAdminOper
// non-zero), per §6's TRY_AGAIN collision rule.
func (d *Director) ApplyNodeAdminOp(node *model.Node, op model.AdminOpID) error {
	if !node.IsAdminOpAllowed() {
		return amferrors.New(amferrors.TryAgain, "ApplyNodeAdminOp", nil)
	}

	for _, suIdx := range node.AllSUs() {
		su, ok := d.Arena.SU(suIdx)
		if !ok {
			continue
		}
		if err := d.ApplySUAdminOp(su, op, nil); err != nil && amferrors.CodeOf(err) != amferrors.NoOp {
			logging.Warn("Director", "node %s admin-op %s on SU %s failed: %v", node.NodeID, op, su.Name, err)
		}
	}
	return nil
}

// ReportNodeFailover implements recovery.NodeFailoverReporter: once the
// escalation ladder crosses the node's failover threshold, the director
// drops application SUSIs, re-plans every affected SG, and conditionally
// emits a single D2N_REBOOT. It does not terminate components itself;
// RunNodeFailoverTermination runs that cleanup before calling it.
func (d *Director) ReportNodeFailover(node *model.Node) {
	logging.Error("Director", nil, "node %s crossed failover threshold, driving NODE_FAILOVER", node.NodeID)
	if d.Metrics != nil {
		d.Metrics.ObserveEscalation(recovery.LevelNodeFailover.String())
	}

	affected := d.affectedSGs(node)

	recovery.DropApplicationSUSIs(d.Arena, node)

	for _, sg := range affected {
		if err := d.Registry.Dispatch(sg, sgfsm.EventNodeFail, node); err != nil {
			logging.Error("Director", err, "SG %s NodeFail reaction failed", sg.Name)
		}
	}

	if recovery.RebootDecision(node) {
		d.sendReboot(node)
	} else {
		logging.Warn("Director", "node %s has saAmfNodeAutoRepair disabled, leaving disabled rather than rebooting", node.NodeID)
	}
}

// RunNodeFailoverTermination drives the node director-side cleanup
// (term_state + application-component teardown) through term, then calls
// ReportNodeFailover once cleanup settles. Production wiring constructs
// term with the node director's CLC executor as its ComponentCleaner.
func (d *Director) RunNodeFailoverTermination(ctx context.Context, term *recovery.Terminator, node *model.Node) {
	term.Terminate(ctx, node, func(n *model.Node, clean bool) {
		if !clean {
			logging.Warn("Director", "node %s failover cleanup was not fully clean, proceeding anyway", n.NodeID)
		}
		d.ReportNodeFailover(n)
	})
}

func (d *Director) affectedSGs(node *model.Node) []*model.ServiceGroup {
	seen := make(map[model.Index]bool)
	var out []*model.ServiceGroup
	for _, suIdx := range node.AllSUs() {
		su, ok := d.Arena.SU(suIdx)
		if !ok || seen[su.SG] {
			continue
		}
		sg, ok := d.Arena.SG(su.SG)
		if !ok {
			continue
		}
		seen[su.SG] = true
		out = append(out, sg)
	}
	return out
}

func (d *Director) sendReboot(node *model.Node) {
	c, ok := d.Protocol.Get(node.NodeID)
	if !ok {
		logging.Error("Director", nil, "no channel for node %s, cannot send D2N_REBOOT", node.NodeID)
		return
	}
	if _, err := c.Send(protocol.MsgReboot, nil); err != nil {
		logging.Error("Director", err, "failed sending D2N_REBOOT to node %s", node.NodeID)
		return
	}
	logging.Audit(logging.AuditEvent{
		Action:  "D2N_REBOOT",
		Outcome: "success",
		Target:  node.NodeID,
		Details: "sent after NODE_FAILOVER",
	})
}
