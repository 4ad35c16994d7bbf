package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/model"
)

type fakeTransport struct {
	delivered []Envelope
	fail      bool
}

func (f *fakeTransport) Deliver(env Envelope) error {
	if f.fail {
		return assert.AnError
	}
	f.delivered = append(f.delivered, env)
	return nil
}

type fakeGapHandler struct {
	nodeID         string
	expected, got  uint64
	called         bool
}

func (f *fakeGapHandler) FatalMsgIDGap(nodeID string, expected, got uint64) {
	f.called = true
	f.nodeID, f.expected, f.got = nodeID, expected, got
}

func TestPairChannel_SendAssignsMonotonicMsgID(t *testing.T) {
	tr := &fakeTransport{}
	c := NewPairChannel("node1", tr, nil)

	e1, err := c.Send(MsgInfoSUSIAssign, SUSIAssign{Action: ActionAssign})
	require.NoError(t, err)
	e2, err := c.Send(MsgInfoSUSIAssign, SUSIAssign{Action: ActionAssign})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), e1.MsgID)
	assert.Equal(t, uint64(2), e2.MsgID)
	assert.NotEmpty(t, e1.CorrelationID)
	assert.NotEqual(t, e1.CorrelationID, e2.CorrelationID)
}

func TestPairChannel_AssertInboundStrictMonotonic(t *testing.T) {
	c := NewPairChannel("node1", nil, nil)

	require.NoError(t, c.AssertInbound(1))
	require.NoError(t, c.AssertInbound(2))
	assert.Error(t, c.AssertInbound(4))
}

func TestPairChannel_AssertInboundGapIsFatal(t *testing.T) {
	gap := &fakeGapHandler{}
	c := NewPairChannel("node1", nil, gap)

	require.NoError(t, c.AssertInbound(1))
	err := c.AssertInbound(3)

	require.Error(t, err)
	assert.True(t, gap.called)
	assert.Equal(t, "node1", gap.nodeID)
	assert.Equal(t, uint64(2), gap.expected)
	assert.Equal(t, uint64(3), gap.got)
}

func TestPairChannel_AckTrimsResendBuffer(t *testing.T) {
	tr := &fakeTransport{}
	c := NewPairChannel("node1", tr, nil)

	_, _ = c.Send(MsgInfoSUSIAssign, nil)
	_, _ = c.Send(MsgInfoSUSIAssign, nil)
	_, _ = c.Send(MsgInfoSUSIAssign, nil)

	c.Ack(2)
	assert.Len(t, c.unacked, 1)
	assert.Equal(t, uint64(3), c.unacked[0].MsgID)
}

func TestPairChannel_ResendRedeliversUnacked(t *testing.T) {
	tr := &fakeTransport{}
	c := NewPairChannel("node1", tr, nil)

	_, _ = c.Send(MsgInfoSUSIAssign, nil)
	_, _ = c.Send(MsgInfoSUSIAssign, nil)
	tr.delivered = nil

	require.NoError(t, c.Resend())
	assert.Len(t, tr.delivered, 2)
}

func TestApplyRegSU_PrunesUnmentionedSUsOnFailover(t *testing.T) {
	arena := model.NewArena()
	node := &model.Node{NodeID: "node1"}
	arena.AddNode(node)

	for _, name := range []string{"su1", "su2", "su3"} {
		su := &model.ServiceUnit{Name: name}
		idx := arena.AddSU(su)
		node.ApplicationSUs = append(node.ApplicationSUs, idx)
	}

	pruned := ApplyRegSU(arena, node, RegSU{NodeID: "node1", SUNames: []string{"su1", "su3"}, IsFailover: true})

	assert.ElementsMatch(t, []string{"su2"}, pruned)
	assert.Len(t, node.ApplicationSUs, 2)
}

func TestApplyRegSU_NoopWhenNotFailover(t *testing.T) {
	arena := model.NewArena()
	node := &model.Node{NodeID: "node1"}
	arena.AddNode(node)
	su := &model.ServiceUnit{Name: "su1"}
	idx := arena.AddSU(su)
	node.ApplicationSUs = append(node.ApplicationSUs, idx)

	pruned := ApplyRegSU(arena, node, RegSU{NodeID: "node1", SUNames: nil, IsFailover: false})

	assert.Nil(t, pruned)
	assert.Len(t, node.ApplicationSUs, 1)
}
