// Package clc implements the Component Lifecycle Controller FSM, the
// per-component presence state machine owned by the node director.
// The transition table is a fixed matrix; unlisted (state, event) pairs
// are no-ops rather than errors.
package clc

import (
	"amfcore/internal/model"
)

// Event is a CLC FSM input.
type Event int

const (
	EventInst Event = iota
	EventInstSucc
	EventInstFail
	EventTerm
	EventTermSucc
	EventTermFail
	EventCleanup
	EventCleanupSucc
	EventCleanupFail
	EventRestart
	EventOrph
)

func (e Event) String() string {
	switch e {
	case EventInst:
		return "INST"
	case EventInstSucc:
		return "INST_SUCC"
	case EventInstFail:
		return "INST_FAIL"
	case EventTerm:
		return "TERM"
	case EventTermSucc:
		return "TERM_SUCC"
	case EventTermFail:
		return "TERM_FAIL"
	case EventCleanup:
		return "CLEANUP"
	case EventCleanupSucc:
		return "CLEANUP_SUCC"
	case EventCleanupFail:
		return "CLEANUP_FAIL"
	case EventRestart:
		return "RESTART"
	case EventOrph:
		return "ORPH"
	default:
		return "UNKNOWN"
	}
}

type transitionKey struct {
	state model.Presence
	event Event
}

// transitions is the fixed (state, event) -> state matrix. Pairs not
// present here are no-ops: the FSM stays in its current state.
var transitions = map[transitionKey]model.Presence{
	{model.PresenceUninstantiated, EventInst}:     model.PresenceInstantiating,
	{model.PresenceInstantiating, EventInstSucc}:  model.PresenceInstantiated,
	{model.PresenceInstantiating, EventInstFail}:  model.PresenceInstantiationFailed,
	{model.PresenceInstantiated, EventTerm}:       model.PresenceTerminating,
	{model.PresenceInstantiated, EventRestart}:    model.PresenceRestarting,
	{model.PresenceInstantiated, EventCleanup}:    model.PresenceTerminating,
	{model.PresenceTerminating, EventTermSucc}:    model.PresenceUninstantiated,
	{model.PresenceTerminating, EventTermFail}:    model.PresenceTerminationFailed,
	{model.PresenceTerminating, EventCleanupSucc}: model.PresenceUninstantiated,
	{model.PresenceTerminating, EventCleanupFail}: model.PresenceTerminationFailed,
	{model.PresenceRestarting, EventTermSucc}:     model.PresenceInstantiating,
	{model.PresenceRestarting, EventTermFail}:     model.PresenceTerminationFailed,
	{model.PresenceInstantiationFailed, EventCleanup}: model.PresenceTerminating,
	{model.PresenceInstantiationFailed, EventInst}:    model.PresenceInstantiating,
	{model.PresenceTerminationFailed, EventCleanup}:   model.PresenceTerminating,
	{model.PresenceUninstantiated, EventOrph}:         model.PresenceOrphaned,
	{model.PresenceOrphaned, EventCleanup}:            model.PresenceTerminating,
	{model.PresenceOrphaned, EventInst}:               model.PresenceInstantiating,
}

// Next applies event to the FSM currently in state, returning the resulting
// state. Unlisted (state, event) pairs are no-ops.
func Next(state model.Presence, event Event) model.Presence {
	if next, ok := transitions[transitionKey{state, event}]; ok {
		return next
	}
	return state
}

// TeardownHealthMonitoringFirst reports whether the given transition leaves
// INSTANTIATED, in which case passive health monitoring must be torn down
// before anything else runs.
func TeardownHealthMonitoringFirst(state model.Presence, event Event) bool {
	if state != model.PresenceInstantiated {
		return false
	}
	next := Next(state, event)
	return next != state
}
