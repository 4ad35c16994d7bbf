package protocol

import (
	"amfcore/internal/model"
	"amfcore/pkg/logging"
)

// AssignmentSink adapts the sgfsm.AssignmentSink interface onto the D<->ND
// pair channel: every SUSI mutation the SG FSM stages is translated into a
// D2N_INFO_SU_SI_ASSIGN envelope sent to the SU's hosting node.
type AssignmentSink struct {
	Arena    *model.Arena
	Registry *Registry
	// NewChannel builds a channel for a node not yet registered, bound to
	// that node's transport. Supplied by the director's wiring code.
	NewChannel func(nodeID string) *PairChannel
}

func (s *AssignmentSink) channelFor(su *model.ServiceUnit) (*PairChannel, *model.Node, bool) {
	node, ok := s.Arena.Node(su.Node)
	if !ok {
		return nil, nil, false
	}
	c := s.Registry.Channel(node.NodeID, func() *PairChannel { return s.NewChannel(node.NodeID) })
	return c, node, true
}

func (s *AssignmentSink) send(su *model.SUSI, action MsgAction) {
	suObj, ok := s.Arena.SU(su.SU)
	if !ok {
		return
	}
	si, ok := s.Arena.SI(su.SI)
	if !ok {
		return
	}
	c, node, ok := s.channelFor(suObj)
	if !ok {
		logging.Error("Protocol", nil, "no node for SU idx %d, cannot send %s", su.SU, action)
		return
	}
	payload := SUSIAssign{
		Action:  action,
		SUName:  suObj.Name,
		SIName:  si.Name,
		HAState: su.HAState,
	}
	if _, err := c.Send(MsgInfoSUSIAssign, payload); err != nil {
		logging.Error("Protocol", err, "failed sending %s for SU %s SI %s to node %s", action, suObj.Name, si.Name, node.NodeID)
	}
}

// IssueSUSI sends a new ASGN for susi.
func (s *AssignmentSink) IssueSUSI(susi *model.SUSI) { s.send(susi, ActionAssign) }

// ModifySUSI sends a MOD for susi carrying its already-updated HA state.
func (s *AssignmentSink) ModifySUSI(susi *model.SUSI, newHAState model.HAState) {
	susi.HAState = newHAState
	s.send(susi, ActionModify)
}

// DeleteSUSI sends a DEL for susi.
func (s *AssignmentSink) DeleteSUSI(susi *model.SUSI) { s.send(susi, ActionDelete) }
