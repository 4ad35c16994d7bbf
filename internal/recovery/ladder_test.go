package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/model"
)

type recordingNodeReporter struct {
	reported []*model.Node
}

func (r *recordingNodeReporter) ReportNodeFailover(node *model.Node) {
	r.reported = append(r.reported, node)
}

func TestLadder_ComponentEscalatesAtMax(t *testing.T) {
	arena := model.NewArena()
	comp := &model.Component{Name: "c1"}
	arena.AddComponent(comp)

	l := NewLadder(Config{CompRestartMax: 2}, arena, nil)

	assert.False(t, l.ReportComponentFault(comp))
	assert.True(t, l.ReportComponentFault(comp))
	assert.Equal(t, 2, comp.RestartCount)
}

func TestLadder_SUEscalatesAtMax(t *testing.T) {
	arena := model.NewArena()
	su := &model.ServiceUnit{Name: "su1"}
	arena.AddSU(su)

	l := NewLadder(Config{SURestartMax: 3}, arena, nil)

	assert.False(t, l.ReportSURestart(su))
	assert.False(t, l.ReportSURestart(su))
	assert.True(t, l.ReportSURestart(su))
}

func TestLadder_SUFailoverEscalatesToNodeFailover(t *testing.T) {
	arena := model.NewArena()
	node := &model.Node{NodeID: "n1"}
	nodeIdx := arena.AddNode(node)
	su := &model.ServiceUnit{Name: "su1", Node: nodeIdx}
	arena.AddSU(su)

	reporter := &recordingNodeReporter{}
	l := NewLadder(Config{NodeFailoverThreshold: 2}, arena, reporter)

	l.ReportSUFailover(su)
	assert.Empty(t, reporter.reported)

	l.ReportSUFailover(su)
	require.Len(t, reporter.reported, 1)
	assert.Equal(t, "n1", reporter.reported[0].NodeID)
	assert.Equal(t, LevelNodeFailover, l.LevelOf(node))
}

func TestLadder_RequestSUFailoverSharesNodeCounter(t *testing.T) {
	arena := model.NewArena()
	node := &model.Node{NodeID: "n1"}
	nodeIdx := arena.AddNode(node)
	su := &model.ServiceUnit{Name: "su1", Node: nodeIdx}
	arena.AddSU(su)

	reporter := &recordingNodeReporter{}
	l := NewLadder(Config{NodeFailoverThreshold: 1}, arena, reporter)

	l.RequestSUFailover(su, "instantiation failed")
	require.Len(t, reporter.reported, 1)
}
