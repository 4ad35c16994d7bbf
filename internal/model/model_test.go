package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_StableIndicesSurviveRelookup(t *testing.T) {
	a := NewArena()

	su := &ServiceUnit{Name: "su1"}
	idx := a.AddSU(su)
	require.NotZero(t, idx)

	got, ok := a.SU(idx)
	require.True(t, ok)
	assert.Same(t, su, got)
	assert.Equal(t, idx, got.Idx)
}

func TestServiceGroup_IsStable(t *testing.T) {
	sg := &ServiceGroup{FSMState: SGStable}
	assert.True(t, sg.IsStable())

	sg.AddToOperList(Index(1))
	assert.False(t, sg.IsStable())

	sg.RemoveFromOperList(Index(1))
	assert.True(t, sg.IsStable())

	si := Index(2)
	sg.AdminSI = &si
	assert.False(t, sg.IsStable())
}

func TestServiceGroup_MaybeReturnToStable(t *testing.T) {
	sg := &ServiceGroup{FSMState: SGRealign}
	sg.AddToOperList(Index(1))
	sg.MaybeReturnToStable()
	assert.Equal(t, SGRealign, sg.FSMState, "should not return to stable while oper-list non-empty")

	sg.RemoveFromOperList(Index(1))
	sg.MaybeReturnToStable()
	assert.Equal(t, SGStable, sg.FSMState)
}

func TestServiceUnit_HasAssignments(t *testing.T) {
	su := &ServiceUnit{}
	assert.False(t, su.HasAssignments())
	su.AddSUSI(Index(5))
	assert.True(t, su.HasAssignments())
	su.RemoveSUSI(Index(5))
	assert.False(t, su.HasAssignments())
}

func TestServiceInstance_IsAssignable(t *testing.T) {
	si := &ServiceInstance{AdminState: AdminUnlocked, NumCSI: 2, MaxNumCSI: 2}
	assert.True(t, si.IsAssignable())

	si.NumCSI = 1
	assert.False(t, si.IsAssignable(), "num_csi must equal max_num_csi")

	si.NumCSI = 2
	si.DependencyState = SIDepSponsorUnassigned
	assert.False(t, si.IsAssignable())

	si.DependencyState = SIDepUnassigningDueToDep
	assert.False(t, si.IsAssignable())

	si.DependencyState = SIDepAssigned
	si.AdminState = AdminLocked
	assert.False(t, si.IsAssignable())
}

func TestSUSI_HAChangedTreatsQuiescingToQuiescedAsChange(t *testing.T) {
	assert.True(t, HAChanged(HAQuiescing, HAQuiesced))
	assert.False(t, HAChanged(HAActive, HAActive))
}

func TestSUSI_CanTransitionToFreed(t *testing.T) {
	s := &SUSI{FSMState: SUSIUnasgn}
	assert.True(t, s.CanTransitionToFreed())

	s.FSMState = SUSIAsgnd
	assert.False(t, s.CanTransitionToFreed())
}

func TestNode_IsAdminOpAllowed(t *testing.T) {
	n := &Node{}
	assert.True(t, n.IsAdminOpAllowed())
	n.SUCntAdminOper = 1
	assert.False(t, n.IsAdminOpAllowed())
}
