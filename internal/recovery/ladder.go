// Package recovery implements the per-component, per-SU, and per-node
// error-escalation ladder: component restart -> SU restart -> SU failover
// -> node failover, each tier counted independently and bounded by a
// probation timer that resets (never cancels) its tier's counter on
// expiry, matching the "never cancelled on reconfiguration, only
// restarted" rule.
package recovery

import (
	"sync"
	"time"

	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// Level names how far a fault chain has escalated.
type Level int

const (
	LevelNone Level = iota
	LevelSURestart
	LevelSUFailover
	LevelNodeFailover
)

func (l Level) String() string {
	switch l {
	case LevelSURestart:
		return "SU_RESTART"
	case LevelSUFailover:
		return "SU_FAILOVER"
	case LevelNodeFailover:
		return "NODE_FAILOVER"
	default:
		return "NONE"
	}
}

// Config holds the thresholds that govern the ladder. Zero values are
// replaced by sensible defaults in NewLadder.
type Config struct {
	CompRestartMax        int
	SURestartMax          int
	NodeFailoverThreshold int
	ProbationPeriod       time.Duration
}

func (c Config) withDefaults() Config {
	if c.CompRestartMax <= 0 {
		c.CompRestartMax = 3
	}
	if c.SURestartMax <= 0 {
		c.SURestartMax = 3
	}
	if c.NodeFailoverThreshold <= 0 {
		c.NodeFailoverThreshold = 3
	}
	if c.ProbationPeriod <= 0 {
		c.ProbationPeriod = 5 * time.Minute
	}
	return c
}

// NodeFailoverReporter is invoked once a node's su_failover_cnt reaches its
// failover threshold. The real implementation lives in internal/director,
// which drives the node-failover termination flow described in §4.4.
type NodeFailoverReporter interface {
	ReportNodeFailover(node *model.Node)
}

type counterEntry struct {
	count int
	timer *time.Timer
}

// Ladder owns the escalation counters and probation timers for every
// component, SU, and node it has been asked to track. One Ladder is shared
// by the node director's CLC/suagg callers and the director's SG FSM via
// the FailoverReporter adapter.
type Ladder struct {
	cfg    Config
	arena  *model.Arena
	onNode NodeFailoverReporter

	mu         sync.Mutex
	compCount  map[model.Index]*counterEntry
	suRestart  map[model.Index]*counterEntry
	nodeFailSU map[model.Index]*counterEntry
}

// NewLadder builds a Ladder bound to arena (for SU->Node lookups) and
// onNode (fired when a node crosses its failover threshold).
func NewLadder(cfg Config, arena *model.Arena, onNode NodeFailoverReporter) *Ladder {
	return &Ladder{
		cfg:        cfg.withDefaults(),
		arena:      arena,
		onNode:     onNode,
		compCount:  make(map[model.Index]*counterEntry),
		suRestart:  make(map[model.Index]*counterEntry),
		nodeFailSU: make(map[model.Index]*counterEntry),
	}
}

func (l *Ladder) entry(m map[model.Index]*counterEntry, idx model.Index, onExpire func()) *counterEntry {
	e, ok := m[idx]
	if !ok {
		e = &counterEntry{}
		m[idx] = e
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(l.cfg.ProbationPeriod, onExpire)
	return e
}

// ReportComponentFault raises comp.RestartCount and reports whether it has
// reached comp_restart_max within probation, the trigger for escalating to
// an SU restart.
func (l *Ladder) ReportComponentFault(comp *model.Component) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(l.compCount, comp.Idx, func() { l.resetComponent(comp.Idx) })
	e.count++
	comp.RestartCount = e.count
	escalate := e.count >= l.cfg.CompRestartMax
	if escalate {
		logging.Warn("Recovery", "component idx %d reached comp_restart_max=%d, escalating to SU restart", comp.Idx, l.cfg.CompRestartMax)
	}
	return escalate
}

func (l *Ladder) resetComponent(idx model.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.compCount[idx]; ok {
		e.count = 0
	}
}

// ReportSURestart raises su.RestartCount and reports whether su_restart_max
// has been reached, the trigger for escalating to SU failover.
func (l *Ladder) ReportSURestart(su *model.ServiceUnit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(l.suRestart, su.Idx, func() { l.resetSU(su.Idx) })
	e.count++
	su.RestartCount = e.count
	escalate := e.count >= l.cfg.SURestartMax
	if escalate {
		logging.Warn("Recovery", "SU %s reached su_restart_max=%d, escalating to SU failover", su.Name, l.cfg.SURestartMax)
	}
	return escalate
}

func (l *Ladder) resetSU(idx model.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.suRestart[idx]; ok {
		e.count = 0
	}
}

// ReportSUFailover raises the hosting node's su_failover_cnt and, once the
// node's failover threshold is reached, invokes onNode. This method is the
// concrete implementation of sgfsm.FailoverReporter: the SG FSM's
// best-effort forced-quiesced+DEL path calls it directly when an SU whose
// saAmfSUFailover policy is enabled suffers a SUSI failure.
func (l *Ladder) ReportSUFailover(su *model.ServiceUnit) {
	l.mu.Lock()
	node, ok := l.arena.Node(su.Node)
	if !ok {
		l.mu.Unlock()
		return
	}
	e := l.entry(l.nodeFailSU, node.Idx, func() { l.resetNode(node.Idx) })
	e.count++
	escalate := e.count >= l.cfg.NodeFailoverThreshold
	l.mu.Unlock()

	logging.Warn("Recovery", "SU %s failover (node %s su_failover_cnt=%d)", su.Name, node.NodeID, e.count)
	if escalate && l.onNode != nil {
		node.ErrorEscalationLevel = int(LevelNodeFailover)
		l.onNode.ReportNodeFailover(node)
	}
}

func (l *Ladder) resetNode(idx model.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.nodeFailSU[idx]; ok {
		e.count = 0
	}
}

// RequestSUFailover implements suagg.FailoverRequester: the SU presence
// aggregator calls this directly (bypassing the SUSI-failure path) when a
// terminal INSTANTIATION_FAILED/TERMINATION_FAILED transition demands
// failover under the SU's policy. It shares the same node-level counter
// and threshold as ReportSUFailover.
func (l *Ladder) RequestSUFailover(su *model.ServiceUnit, reason string) {
	logging.Warn("Recovery", "SU %s requesting failover: %s", su.Name, reason)
	l.ReportSUFailover(su)
}

// SetReporter binds the NodeFailoverReporter after construction, for the
// common case where the reporter (the director) itself needs the Ladder to
// exist before it can be built.
func (l *Ladder) SetReporter(r NodeFailoverReporter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onNode = r
}

// LevelOf reports the current escalation level recorded against node,
// purely for reporting/CLI purposes; it does not mutate state.
func (l *Ladder) LevelOf(node *model.Node) Level {
	return Level(node.ErrorEscalationLevel)
}
