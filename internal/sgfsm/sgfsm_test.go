package sgfsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/model"
)

type recordingSink struct {
	issued   []*model.SUSI
	modified []*model.SUSI
	deleted  []*model.SUSI
}

func (s *recordingSink) IssueSUSI(susi *model.SUSI)                         { s.issued = append(s.issued, susi) }
func (s *recordingSink) ModifySUSI(susi *model.SUSI, newHA model.HAState)   { s.modified = append(s.modified, susi) }
func (s *recordingSink) DeleteSUSI(susi *model.SUSI)                        { s.deleted = append(s.deleted, susi) }

func newInServiceSU(arena *model.Arena, name string) *model.ServiceUnit {
	su := &model.ServiceUnit{Name: name, Readiness: model.ReadinessInService, AdminState: model.AdminUnlocked}
	idx := arena.AddSU(su)
	su.Idx = idx
	return su
}

func newAssignableSI(arena *model.Arena, sg *model.ServiceGroup, name string) *model.ServiceInstance {
	si := &model.ServiceInstance{Name: name, SG: sg.Idx, AdminState: model.AdminUnlocked, NumCSI: 1, MaxNumCSI: 1}
	idx := arena.AddSI(si)
	si.Idx = idx
	sg.SIs = append(sg.SIs, idx)
	return si
}

func Test2N_RoleSwitchOnActiveFault(t *testing.T) {
	arena := model.NewArena()
	sg := &model.ServiceGroup{Name: "sg1", RedundancyModel: model.Red2N, FSMState: model.SGStable}
	sgIdx := arena.AddSG(sg)
	sg.Idx = sgIdx

	suA := newInServiceSU(arena, "SU_A")
	suB := newInServiceSU(arena, "SU_B")
	sg.SUs = []model.Index{suA.Idx, suB.Idx}

	si1 := newAssignableSI(arena, sg, "SI1")

	// SG already settled: SU_A active, SU_B standby, oper-list drained.
	activeSUSI := &model.SUSI{SU: suA.Idx, SI: si1.Idx, HAState: model.HAActive, FSMState: model.SUSIAsgnd}
	activeSUSI.Idx = arena.AddSUSI(activeSUSI)
	suA.AddSUSI(activeSUSI.Idx)
	si1.SUSIs = append(si1.SUSIs, activeSUSI.Idx)

	standbySUSI := &model.SUSI{SU: suB.Idx, SI: si1.Idx, HAState: model.HAStandby, FSMState: model.SUSIAsgnd}
	standbySUSI.Idx = arena.AddSUSI(standbySUSI)
	suB.AddSUSI(standbySUSI.Idx)
	si1.SUSIs = append(si1.SUSIs, standbySUSI.Idx)

	sink := &recordingSink{}
	reg := NewRegistry(&Engine{Arena: arena, Sink: sink})

	require.NoError(t, reg.Dispatch(sg, EventSUFault, suA))
	assert.Equal(t, model.SGSUOper, sg.FSMState)
	assert.Equal(t, model.HAQuiescing, activeSUSI.HAState)

	// By the time the SG FSM sees the fault reach QUIESCED, the node
	// director's presence aggregator has already taken SU_A out of
	// service (it is the SU that faulted), so the planner must not pick
	// it back up when it re-runs choose-and-assign below.
	suA.Readiness = model.ReadinessOutOfService

	require.NoError(t, reg.Dispatch(sg, EventSUFault, suA))
	assert.Equal(t, model.HAQuiesced, activeSUSI.HAState)
	assert.Equal(t, model.SUSIUnasgn, activeSUSI.FSMState)
	assert.Equal(t, model.SGRealign, sg.FSMState)
	assert.Contains(t, sink.deleted, activeSUSI)

	require.NoError(t, reg.Dispatch(sg, EventSUSISuccess, activeSUSI))

	standbySUSI, ok := arena.SUSI(suB.SUSIs[0])
	require.True(t, ok)
	assert.Equal(t, model.HAActive, standbySUSI.HAState)
	assert.Empty(t, suA.SUSIs)
	assert.Equal(t, model.SGStable, sg.FSMState)
}

func TestNWayActive_PlannerRespectsActiveMaxSUAndRank(t *testing.T) {
	arena := model.NewArena()
	sg := &model.ServiceGroup{Name: "sg1", RedundancyModel: model.RedNWayActive, FSMState: model.SGStable, ActiveMaxSU: 3}
	sgIdx := arena.AddSG(sg)
	sg.Idx = sgIdx

	var sus []*model.ServiceUnit
	for i := 0; i < 4; i++ {
		su := newInServiceSU(arena, "SU")
		sg.SUs = append(sg.SUs, su.Idx)
		sus = append(sus, su)
	}

	si1 := newAssignableSI(arena, sg, "SI1")
	si1.RankedSU = []model.Index{sus[2].Idx, sus[0].Idx}
	si2 := newAssignableSI(arena, sg, "SI2")

	sink := &recordingSink{}
	reg := NewRegistry(&Engine{Arena: arena, Sink: sink})

	require.NoError(t, reg.Dispatch(sg, EventRealign, nil))

	assert.Len(t, sink.issued, 4)
	assert.LessOrEqual(t, si1.ActiveCurrSU(arena.SUSI), sg.ActiveMaxSU)
	assert.LessOrEqual(t, si2.ActiveCurrSU(arena.SUSI), sg.ActiveMaxSU)

	assert.True(t, si1.AssignedTo(sus[2].Idx, arena.SUSI), "rank-preferred SU should be assigned first")
}

func TestSUAdminOpPolicy_DuplicateUnlockIsNoOp(t *testing.T) {
	assert.Equal(t, OutcomeNoOp, SUAdminOpPolicy(model.AdminUnlocked, model.AdminOpUnlock))
}

func TestSUAdminOpPolicy_LockInterruptsShutdown(t *testing.T) {
	assert.Equal(t, OutcomeInterruptsShutdown, SUAdminOpPolicy(model.AdminShuttingDown, model.AdminOpLock))
}

func TestSUAdminOpPolicy_UnlockInstantiationWhileLockedRuns(t *testing.T) {
	assert.Equal(t, OutcomeRun, SUAdminOpPolicy(model.AdminLockedInstantiation, model.AdminOpUnlockInstantiation))
}

func TestSUAdminOpPolicy_LockWhileLockedInstantiationErrs(t *testing.T) {
	assert.Equal(t, OutcomeErr, SUAdminOpPolicy(model.AdminLockedInstantiation, model.AdminOpLock))
}

func TestNodeFail_FreesAllSUSIsAndRePlans(t *testing.T) {
	arena := model.NewArena()
	sg := &model.ServiceGroup{Name: "sg1", RedundancyModel: model.RedNoRedundancy, FSMState: model.SGStable}
	sgIdx := arena.AddSG(sg)
	sg.Idx = sgIdx

	node := &model.Node{NodeID: "node1"}
	nodeIdx := arena.AddNode(node)
	node.Idx = nodeIdx

	su := newInServiceSU(arena, "SU_A")
	su.Node = nodeIdx
	sg.SUs = []model.Index{su.Idx}
	si := newAssignableSI(arena, sg, "SI1")

	sink := &recordingSink{}
	reg := NewRegistry(&Engine{Arena: arena, Sink: sink})
	require.NoError(t, reg.Dispatch(sg, EventRealign, nil))
	require.Len(t, su.SUSIs, 1)

	su.Readiness = model.ReadinessOutOfService
	require.NoError(t, reg.Dispatch(sg, EventNodeFail, node))
	assert.Empty(t, su.SUSIs)
	assert.Nil(t, sg.AdminSI)
	_ = si
}
