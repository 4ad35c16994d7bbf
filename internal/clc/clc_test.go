package clc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/model"
)

func TestNext_TransitionTable(t *testing.T) {
	cases := []struct {
		state model.Presence
		event Event
		want  model.Presence
	}{
		{model.PresenceUninstantiated, EventInst, model.PresenceInstantiating},
		{model.PresenceInstantiating, EventInstSucc, model.PresenceInstantiated},
		{model.PresenceInstantiating, EventInstFail, model.PresenceInstantiationFailed},
		{model.PresenceInstantiated, EventTerm, model.PresenceTerminating},
		{model.PresenceTerminating, EventTermSucc, model.PresenceUninstantiated},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Next(c.state, c.event))
	}
}

func TestNext_UnlistedPairIsNoOp(t *testing.T) {
	assert.Equal(t, model.PresenceUninstantiated, Next(model.PresenceUninstantiated, EventTermSucc))
}

func TestTeardownHealthMonitoringFirst(t *testing.T) {
	assert.True(t, TeardownHealthMonitoringFirst(model.PresenceInstantiated, EventTerm))
	assert.False(t, TeardownHealthMonitoringFirst(model.PresenceUninstantiated, EventInst))
}

type fakeExecutor struct {
	result ExecResult
	calls  int
}

func (f *fakeExecutor) Execute(ctx context.Context, path string, args, env []string, timeout time.Duration) ExecResult {
	f.calls++
	return f.result
}

type noopCSISource struct{}

func (noopCSISource) AssignedCSIs(*model.Component) []*model.CSI { return nil }

func TestController_InstantiateSuccessNonPreInstantiable(t *testing.T) {
	exec := &fakeExecutor{result: ExecResult{Outcome: OutcomeNormalExit}}
	var terminal model.Presence
	ctrl := NewController()
	ctrl.Exec = exec
	ctrl.CSIs = noopCSISource{}
	ctrl.OnTerminal = func(c *model.Component, s model.Presence) { terminal = s }

	comp := &model.Component{Name: "c1", PreInstantiable: false}
	ctrl.Instantiate(context.Background(), comp, func(*model.Component, model.CLCCommand) (string, []string) { return "/bin/true", nil })

	assert.Equal(t, model.PresenceInstantiated, comp.Presence)
	assert.Equal(t, model.PresenceInstantiated, terminal)
	assert.Equal(t, 1, exec.calls)
}

func TestController_InstantiateRetriesThenFails(t *testing.T) {
	exec := &fakeExecutor{result: ExecResult{Outcome: OutcomeExitWithCode, ExitCode: 1}}
	ctrl := NewController()
	ctrl.InstRetryMax = 2
	ctrl.Exec = exec
	ctrl.CSIs = noopCSISource{}

	comp := &model.Component{Name: "c1"}
	resolve := func(*model.Component, model.CLCCommand) (string, []string) { return "/bin/false", nil }

	ctrl.Instantiate(context.Background(), comp, resolve)
	assert.Equal(t, model.PresenceUninstantiated, comp.Presence, "first failure should retry, not terminal-fail")

	ctrl.Instantiate(context.Background(), comp, resolve)
	assert.Equal(t, model.PresenceInstantiationFailed, comp.Presence, "retries exhausted at InstRetryMax")
}

func TestController_InstantiateNoRetryExitCodeAbortsImmediately(t *testing.T) {
	exec := &fakeExecutor{result: ExecResult{Outcome: OutcomeExitWithCode, ExitCode: NoRetryExitCode}}
	ctrl := NewController()
	ctrl.InstRetryMax = 5
	ctrl.Exec = exec
	ctrl.CSIs = noopCSISource{}

	comp := &model.Component{Name: "c1"}
	ctrl.Instantiate(context.Background(), comp, func(*model.Component, model.CLCCommand) (string, []string) { return "/bin/false", nil })

	assert.Equal(t, model.PresenceInstantiationFailed, comp.Presence)
	assert.Equal(t, 1, exec.calls, "no-retry code must not be retried even though InstRetryMax allows more attempts")
}

func TestController_MiddlewareFailureTriggersReboot(t *testing.T) {
	exec := &fakeExecutor{result: ExecResult{Outcome: OutcomeExitWithCode, ExitCode: NoRetryExitCode}}
	rebooted := false
	ctrl := NewController()
	ctrl.Exec = exec
	ctrl.CSIs = noopCSISource{}
	ctrl.IsMiddleware = func(*model.Component) bool { return true }
	ctrl.Reboot = rebootFunc(func(reason string) { rebooted = true })

	comp := &model.Component{Name: "mw1"}
	ctrl.Instantiate(context.Background(), comp, func(*model.Component, model.CLCCommand) (string, []string) { return "/bin/false", nil })

	assert.True(t, rebooted)
}

type rebootFunc func(reason string)

func (f rebootFunc) RequestLocalReboot(reason string) { f(reason) }

func TestBuildEnv_DuplicateNameFirstValueWins(t *testing.T) {
	comp := &model.Component{
		Name: "c1",
		EnvList: []model.Attribute{
			{Name: "FOO", Value: "first"},
			{Name: "FOO", Value: "second"},
		},
	}
	env := BuildEnv(comp, "node1", model.CLCInstantiate, model.ErrSrcNone, nil)
	found := false
	for _, e := range env {
		if e == "FOO=first" {
			found = true
		}
		assert.NotEqual(t, "FOO=second", e)
	}
	assert.True(t, found)
}

func TestBuildEnv_NPISingleCSIFlattensAttributes(t *testing.T) {
	comp := &model.Component{Name: "c1", PreInstantiable: false}
	csi := &model.CSI{Attributes: []model.Attribute{{Name: "ROLE", Value: "primary"}}}
	env := BuildEnv(comp, "node1", model.CLCInstantiate, model.ErrSrcNone, []*model.CSI{csi})
	assert.Contains(t, env, "ROLE=primary")
}

func TestBuildEnv_CleanupIncludesErrorSource(t *testing.T) {
	comp := &model.Component{Name: "c1"}
	env := BuildEnv(comp, "node1", model.CLCCleanup, model.ErrSrcHealthcheckFailure, nil)
	require.Contains(t, env, "OSAF_COMPONENT_ERROR_SOURCE=1")
}

func TestRenderEnvBlock(t *testing.T) {
	out, err := RenderEnvBlock([]model.Attribute{{Name: "foo", Value: "bar"}})
	require.NoError(t, err)
	assert.Contains(t, out, "FOO=bar")
}
