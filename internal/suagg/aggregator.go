// Package suagg aggregates per-component presence changes into the
// SU-level presence state and the terminal-transition side effects the SG
// FSM depends on.
package suagg

import (
	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// SGCallback is invoked on every SU terminal-presence transition so the SG
// FSM can react (instantiated, instantiation-failed, termination-failed,
// uninstantiated, restarting, terminating).
type SGCallback func(su *model.ServiceUnit, newPresence model.Presence)

// Reinstantiator re-launches a failed, CSI-less SU's components after an
// UNINSTANTIATED transition, unless the SU is shutting down or already
// undergoing failover.
type Reinstantiator interface {
	Reinstantiate(su *model.ServiceUnit)
}

// FailoverRequester escalates a SU to failover when its policy requires it.
type FailoverRequester interface {
	RequestSUFailover(su *model.ServiceUnit, reason string)
}

// Aggregator derives SU-level presence from the presence of the SU's
// component set and applies the terminal-transition side effects.
type Aggregator struct {
	Arena     *model.Arena
	OnSG      SGCallback
	Reinst    Reinstantiator
	Failover  FailoverRequester
}

// NewAggregator builds an Aggregator bound to arena.
func NewAggregator(arena *model.Arena) *Aggregator {
	return &Aggregator{Arena: arena}
}

// ComponentPresenceChanged is the entry point the node director's CLC
// terminal callback feeds every component presence transition into. It
// recomputes the owning SU's presence and, on a terminal transition, runs
// the matching side effects.
func (a *Aggregator) ComponentPresenceChanged(comp *model.Component, newState model.Presence) {
	su, ok := a.Arena.SU(comp.SU)
	if !ok {
		return
	}

	derived := derivePresence(a.Arena, su)
	if derived == su.Presence {
		return
	}

	prev := su.Presence
	su.Presence = derived
	logging.Info("SUAgg", "SU %s presence %s -> %s", su.Name, prev, derived)

	if !isTerminal(derived) {
		return
	}

	a.applyTerminalSideEffects(su, derived)

	if a.OnSG != nil {
		a.OnSG(su, derived)
	}
}

func isTerminal(p model.Presence) bool {
	switch p {
	case model.PresenceInstantiated,
		model.PresenceInstantiationFailed,
		model.PresenceTerminationFailed,
		model.PresenceUninstantiated,
		model.PresenceRestarting,
		model.PresenceTerminating:
		return true
	default:
		return false
	}
}

// derivePresence folds a SU's component presence set into a single
// SU-level presence. A SU is INSTANTIATED only when every component is
// INSTANTIATED; any component INSTANTIATING/TERMINATING/RESTARTING drags
// the SU into the matching transitional state; a single
// INSTANTIATION_FAILED or TERMINATION_FAILED is terminal for the SU; all
// components UNINSTANTIATED folds to SU UNINSTANTIATED.
func derivePresence(arena *model.Arena, su *model.ServiceUnit) model.Presence {
	if len(su.Components) == 0 {
		return su.Presence
	}

	counts := make(map[model.Presence]int)
	for _, idx := range su.Components {
		comp, ok := arena.Component(idx)
		if !ok {
			continue
		}
		counts[comp.Presence]++
	}
	total := len(su.Components)

	switch {
	case counts[model.PresenceInstantiationFailed] > 0:
		return model.PresenceInstantiationFailed
	case counts[model.PresenceTerminationFailed] > 0:
		return model.PresenceTerminationFailed
	case counts[model.PresenceInstantiated] == total:
		return model.PresenceInstantiated
	case counts[model.PresenceUninstantiated] == total:
		return model.PresenceUninstantiated
	case counts[model.PresenceTerminating] > 0:
		return model.PresenceTerminating
	case counts[model.PresenceRestarting] > 0:
		return model.PresenceRestarting
	case counts[model.PresenceInstantiating] > 0:
		return model.PresenceInstantiating
	default:
		return su.Presence
	}
}

func (a *Aggregator) applyTerminalSideEffects(su *model.ServiceUnit, newState model.Presence) {
	switch newState {
	case model.PresenceInstantiated:
		su.OperState = model.OperEnabled
		su.Failed = false
		su.RecomputeReadiness()

	case model.PresenceUninstantiated:
		a.handleUninstantiated(su)

	case model.PresenceTerminationFailed, model.PresenceInstantiationFailed:
		su.Failed = true
		if su.SUFailover == model.SUFailoverEnabled && a.Failover != nil {
			a.Failover.RequestSUFailover(su, newState.String())
		}
	}
}

func (a *Aggregator) handleUninstantiated(su *model.ServiceUnit) {
	su.OperState = model.OperEnabled
	su.RecomputeReadiness()

	if !su.Failed {
		return
	}
	if su.AdminState == model.AdminShuttingDown {
		return
	}
	if su.TermState == model.TermNodeFailoverTerminating {
		return
	}
	if hasNoCSIAssignments(a.Arena, su) && a.Reinst != nil {
		a.Reinst.Reinstantiate(su)
	}
}

func hasNoCSIAssignments(arena *model.Arena, su *model.ServiceUnit) bool {
	for _, idx := range su.Components {
		comp, ok := arena.Component(idx)
		if !ok {
			continue
		}
		if len(comp.CSIAssignments) > 0 {
			return false
		}
	}
	return true
}
