package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/model"
)

func buildFixtureArena() *model.Arena {
	arena := model.NewArena()

	node := &model.Node{NodeID: "node1", Name: "Node 1", AdminState: model.AdminUnlocked, SaAmfNodeAutoRepair: true}
	arena.AddNode(node)

	sg := &model.ServiceGroup{Name: "sg1", RedundancyModel: model.RedNWayActive, AdminState: model.AdminUnlocked, ActiveMaxSU: 2}
	arena.AddSG(sg)

	su := &model.ServiceUnit{Name: "su1", SG: sg.Idx, Node: node.Idx, AdminState: model.AdminUnlocked, SUFailover: model.SUFailoverEnabled}
	arena.AddSU(su)
	sg.SUs = append(sg.SUs, su.Idx)
	node.ApplicationSUs = append(node.ApplicationSUs, su.Idx)

	si := &model.ServiceInstance{Name: "si1", SG: sg.Idx, MaxNumCSI: 1}
	arena.AddSI(si)
	sg.SIs = append(sg.SIs, si.Idx)

	comp := &model.Component{Name: "comp1", SU: su.Idx, Type: "demo", PreInstantiable: true}
	arena.AddComponent(comp)
	su.Components = append(su.Components, comp.Idx)

	csi := &model.CSI{Name: "csi1", SI: si.Idx, CSType: "demo-cs", Attributes: []model.Attribute{{Name: "k", Value: "v"}}}
	arena.AddCSI(csi)
	si.CSIs = append(si.CSIs, csi.Idx)
	si.NumCSI++

	return arena
}

func TestExportLoad_RoundTripsTopology(t *testing.T) {
	arena := buildFixtureArena()

	data, err := Export(arena)
	require.NoError(t, err)
	assert.Contains(t, string(data), "node1")

	loaded, err := Load(data)
	require.NoError(t, err)

	nodes := loaded.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "node1", nodes[0].NodeID)
	assert.True(t, nodes[0].SaAmfNodeAutoRepair)

	sgs := loaded.SGs()
	require.Len(t, sgs, 1)
	assert.Equal(t, model.RedNWayActive, sgs[0].RedundancyModel)

	sus := loaded.SUs()
	require.Len(t, sus, 1)
	assert.Equal(t, model.SUFailoverEnabled, sus[0].SUFailover)
	assert.Equal(t, sgs[0].Idx, sus[0].SG)
	assert.Equal(t, nodes[0].Idx, sus[0].Node)

	sis := loaded.SIs()
	require.Len(t, sis, 1)
	assert.Equal(t, 1, sis[0].NumCSI)

	csis := loaded.CSIs()
	require.Len(t, csis, 1)
	assert.Equal(t, "v", csis[0].Attributes[0].Value)
}
