package nodedirector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/clc"
	"amfcore/internal/model"
	"amfcore/internal/protocol"
)

type fakeExecutor struct{ outcome clc.Outcome }

func (f fakeExecutor) Execute(ctx context.Context, path string, args, env []string, timeout time.Duration) clc.ExecResult {
	return clc.ExecResult{Outcome: f.outcome}
}

func noResolve(comp *model.Component, cmd model.CLCCommand) (string, []string) { return "", nil }

func buildND(t *testing.T) (*NodeDirector, *model.Node, *model.ServiceUnit, *model.Component) {
	t.Helper()
	arena := model.NewArena()

	node := &model.Node{NodeID: "node1"}
	nodeIdx := arena.AddNode(node)

	su := &model.ServiceUnit{Name: "su1", Node: nodeIdx}
	suIdx := arena.AddSU(su)
	node.ApplicationSUs = append(node.ApplicationSUs, suIdx)

	comp := &model.Component{Name: "comp1", SU: suIdx}
	compIdx := arena.AddComponent(comp)
	su.Components = append(su.Components, compIdx)

	var sgEvents []model.Presence
	nd := New("node1", arena, noResolve, func(su *model.ServiceUnit, p model.Presence) {
		sgEvents = append(sgEvents, p)
	})
	_ = sgEvents

	return nd, node, su, comp
}

func TestInstantiateComponent_SuccessFoldsIntoSUPresence(t *testing.T) {
	nd, _, su, comp := buildND(t)
	nd.controllerFor(comp).Exec = fakeExecutor{outcome: clc.OutcomeNormalExit}

	nd.InstantiateComponent(context.Background(), comp)

	assert.Equal(t, model.PresenceInstantiated, comp.Presence)
	assert.Equal(t, model.PresenceInstantiated, su.Presence)
}

func TestCleanupForFailover_DrivesCLCCleanup(t *testing.T) {
	nd, _, _, comp := buildND(t)
	nd.controllerFor(comp).Exec = fakeExecutor{outcome: clc.OutcomeNormalExit}
	comp.Presence = model.PresenceInstantiated

	err := nd.CleanupForFailover(context.Background(), comp)

	require.NoError(t, err)
	assert.Equal(t, model.PresenceUninstantiated, comp.Presence)
}

func TestHandleRegSU_PrunesOnFailover(t *testing.T) {
	nd, node, su, _ := buildND(t)

	pruned := nd.HandleRegSU(node, protocol.RegSU{NodeID: "node1", SUNames: nil, IsFailover: true})

	assert.Equal(t, []string{su.Name}, pruned)
	assert.Empty(t, node.ApplicationSUs)
}

func TestHandleSUSIAssign_AppliesNewHAState(t *testing.T) {
	nd, _, su, _ := buildND(t)
	susi := &model.SUSI{SU: su.Idx, HAState: model.HAActive}

	resp := nd.HandleSUSIAssign(susi, protocol.SUSIAssign{
		Action:  protocol.ActionModify,
		SUName:  su.Name,
		HAState: model.HAQuiesced,
	})

	assert.Equal(t, model.HAQuiesced, susi.HAState)
	assert.Equal(t, model.SUSIAsgn, susi.FSMState)
	assert.Equal(t, model.HAQuiesced, resp.HAState)
}
