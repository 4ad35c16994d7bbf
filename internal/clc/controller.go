package clc

import (
	"context"
	"time"

	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// RebootRequester is called when a middleware component's CLC FSM reaches a
// terminal failure, which triggers an immediate reboot-to-repair of the
// local node.
type RebootRequester interface {
	RequestLocalReboot(reason string)
}

// ProxyInvoker delivers a CLEANUP up-call to a proxy instead of running a
// local script, for proxied components.
type ProxyInvoker interface {
	InvokeProxyCleanup(ctx context.Context, proxy, proxied *model.Component) ExecResult
}

// CSISource resolves the CSIs currently assigned to a component, for NPI
// single-CSI environment flattening.
type CSISource interface {
	AssignedCSIs(comp *model.Component) []*model.CSI
}

// TerminalCallback is invoked with the component and its new presence state
// whenever the CLC FSM completes a transition, so the SU presence
// aggregator can react.
type TerminalCallback func(comp *model.Component, newState model.Presence)

// Controller drives one component's CLC FSM. One Controller exists per
// component in a running node director; callers share script/env/proxy
// collaborators across all Controllers on a node.
type Controller struct {
	Exec        Executor
	Proxy       ProxyInvoker
	CSIs        CSISource
	Reboot      RebootRequester
	OnTerminal  TerminalCallback
	IsMiddleware func(*model.Component) bool

	NodeID string

	InstRetryMax int
	CompRegTimeout time.Duration

	instRetryCount map[model.Index]int
}

// NewController builds a Controller, defaulting InstRetryMax to 3 and
// CompRegTimeout to 30s if unset.
func NewController() *Controller {
	return &Controller{
		InstRetryMax:   3,
		CompRegTimeout: 30 * time.Second,
		instRetryCount: make(map[model.Index]int),
	}
}

// ScriptResolver resolves a component's CLC script for a given command;
// production deployments supply this externally. An empty path means
// "launch nothing": ProcessExecutor reports it as a normal exit, so success
// is evaluated from registration (matching the
// pre-instantiable-with-registration rule below).
type ScriptResolver func(comp *model.Component, cmd model.CLCCommand) (path string, args []string)

// Instantiate drives INST -> INSTANTIATING, launches the INSTANTIATE
// command, and resolves INST_SUCC/INST_FAIL against a dual condition: the
// command must exit zero AND the component must be either
// non-pre-instantiable or registered (if pre-instantiable, a comp-reg timer
// is started and its expiry re-raises INST_FAIL).
func (c *Controller) Instantiate(ctx context.Context, comp *model.Component, resolve ScriptResolver) {
	comp.Presence = Next(comp.Presence, EventInst)
	c.notify(comp)

	path, args := resolve(comp, model.CLCInstantiate)
	env := BuildEnv(comp, c.NodeID, model.CLCInstantiate, model.ErrSrcNone, c.assignedCSIs(comp))

	result := c.Exec.Execute(ctx, path, args, env, c.timeoutFor(comp, model.CLCInstantiate))

	if result.Outcome != OutcomeNormalExit {
		c.handleInstFailure(comp, result)
		return
	}

	if !comp.PreInstantiable || comp.RegistrationState == model.RegRegistered {
		c.advance(comp, EventInstSucc)
		c.instRetryCount[comp.Idx] = 0
		return
	}

	// Pre-instantiable and not yet registered: wait for registration,
	// bounded by CompRegTimeout. Production node directors call
	// AwaitRegistration from a timer goroutine; this method only arms the
	// bookkeeping the timer needs.
	logging.Debug("CLC", "component %s instantiated but not yet registered, awaiting registration within %v", comp.Name, c.CompRegTimeout)
}

// AwaitRegistrationTimeout is called by the node director's timer when a
// pre-instantiable component fails to register within CompRegTimeout,
// re-raising INST_FAIL.
func (c *Controller) AwaitRegistrationTimeout(comp *model.Component) {
	if comp.RegistrationState == model.RegRegistered {
		return
	}
	c.handleInstFailure(comp, ExecResult{Outcome: OutcomeWaitTimeout})
}

func (c *Controller) handleInstFailure(comp *model.Component, result ExecResult) {
	if result.Outcome == OutcomeExitWithCode && result.ExitCode == NoRetryExitCode {
		logging.Warn("CLC", "component %s INSTANTIATE returned no-retry exit code, aborting retries", comp.Name)
		c.advance(comp, EventInstFail)
		return
	}

	c.instRetryCount[comp.Idx]++
	if c.instRetryCount[comp.Idx] < c.InstRetryMax {
		logging.Info("CLC", "retrying INSTANTIATE for %s (attempt %d/%d)", comp.Name, c.instRetryCount[comp.Idx]+1, c.InstRetryMax)
		comp.Presence = model.PresenceUninstantiated
		return
	}

	logging.Error("CLC", result.Err, "component %s exhausted INSTANTIATE retries", comp.Name)
	c.advance(comp, EventInstFail)
}

// Terminate drives TERM -> TERMINATING -> TERM_SUCC/TERM_FAIL.
func (c *Controller) Terminate(ctx context.Context, comp *model.Component, resolve ScriptResolver) {
	teardown := TeardownHealthMonitoringFirst(comp.Presence, EventTerm)
	if teardown {
		logging.Debug("CLC", "tearing down health monitoring for %s before TERMINATE", comp.Name)
	}
	comp.Presence = Next(comp.Presence, EventTerm)
	c.notify(comp)

	path, args := resolve(comp, model.CLCTerminate)
	env := BuildEnv(comp, c.NodeID, model.CLCTerminate, model.ErrSrcNone, c.assignedCSIs(comp))
	result := c.Exec.Execute(ctx, path, args, env, c.timeoutFor(comp, model.CLCTerminate))

	if result.Outcome == OutcomeNormalExit {
		c.advance(comp, EventTermSucc)
	} else {
		c.advance(comp, EventTermFail)
	}
}

// Cleanup runs CLEANUP, delivered as a proxy up-call for proxied components
// instead of a local script, with errSrc passed via the CLEANUP
// environment variable.
func (c *Controller) Cleanup(ctx context.Context, comp *model.Component, proxy *model.Component, resolve ScriptResolver, errSrc model.ComponentErrorSource) {
	teardown := TeardownHealthMonitoringFirst(comp.Presence, EventCleanup)
	if teardown {
		logging.Debug("CLC", "tearing down health monitoring for %s before CLEANUP", comp.Name)
	}
	comp.Presence = Next(comp.Presence, EventCleanup)
	c.notify(comp)

	var result ExecResult
	if proxy != nil && c.Proxy != nil {
		result = c.Proxy.InvokeProxyCleanup(ctx, proxy, comp)
	} else {
		path, args := resolve(comp, model.CLCCleanup)
		env := BuildEnv(comp, c.NodeID, model.CLCCleanup, errSrc, c.assignedCSIs(comp))
		result = c.Exec.Execute(ctx, path, args, env, c.timeoutFor(comp, model.CLCCleanup))
	}

	if result.Outcome == OutcomeNormalExit {
		c.advance(comp, EventCleanupSucc)
	} else {
		c.advance(comp, EventCleanupFail)
	}
}

// advance applies event, fires the terminal callback, and escalates to
// reboot-to-repair or upward reporting depending on whether comp is a
// middleware component.
func (c *Controller) advance(comp *model.Component, event Event) {
	comp.Presence = Next(comp.Presence, event)
	c.notify(comp)

	terminalFailure := comp.Presence == model.PresenceInstantiationFailed || comp.Presence == model.PresenceTerminationFailed
	if !terminalFailure {
		return
	}

	if c.IsMiddleware != nil && c.IsMiddleware(comp) {
		logging.Error("CLC", nil, "middleware component %s reached %s, rebooting node to repair", comp.Name, comp.Presence)
		if c.Reboot != nil {
			c.Reboot.RequestLocalReboot("middleware component " + comp.Name + " " + comp.Presence.String())
		}
		return
	}

	logging.Warn("CLC", "application component %s reached %s, reporting upward", comp.Name, comp.Presence)
}

func (c *Controller) notify(comp *model.Component) {
	if c.OnTerminal != nil {
		c.OnTerminal(comp, comp.Presence)
	}
}

// assignedCSIs returns comp's CSIs from c.CSIs, or none when no CSISource is set.
func (c *Controller) assignedCSIs(comp *model.Component) []*model.CSI {
	if c.CSIs == nil {
		return nil
	}
	return c.CSIs.AssignedCSIs(comp)
}

func (c *Controller) timeoutFor(comp *model.Component, cmd model.CLCCommand) time.Duration {
	if ms, ok := comp.Timeouts[cmd]; ok && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 10 * time.Second
}
