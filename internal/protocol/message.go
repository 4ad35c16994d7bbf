// Package protocol implements the Director<->Node-Director pair channel:
// one strictly msg_id-ordered channel per node, carrying the message
// families in spec §4.5/§6, plus the resend and client-high reseed
// behavior a director role switch requires.
package protocol

import "amfcore/internal/model"

// MessageType tags the semantic message families of §6. The wire layout
// is deliberately undefined beyond these invariants (§4.5).
type MessageType int

const (
	MsgRegSU MessageType = iota
	MsgRegSURsp
	MsgInfoSUSIAssign   // D2N_INFO_SU_SI_ASSIGN
	MsgInfoSUSIAssignRsp // N2D_INFO_SU_SI_ASSIGN
	MsgAdminOpReq
	MsgOperationState
	MsgReboot
	MsgClientHigh
	MsgOIImplSet
	MsgOIImplClr
	MsgOIClImplSet
	MsgOIClImplRel
	MsgOIObjImplSet
	MsgOIObjImplRel
	MsgOIInit
	MsgOIResurrect
	MsgOIFinalize
	MsgOMClientHigh
	MsgOIClientHigh
	MsgOIObjCreate
	MsgOIObjModify
	MsgOIObjDelete
	MsgPBEAdmopRsp
	MsgAdmopRsp
	MsgAsyncAdmopRsp
)

func (t MessageType) String() string {
	switch t {
	case MsgRegSU:
		return "REG_SU"
	case MsgRegSURsp:
		return "REG_SU_RSP"
	case MsgInfoSUSIAssign:
		return "D2N_INFO_SU_SI_ASSIGN"
	case MsgInfoSUSIAssignRsp:
		return "N2D_INFO_SU_SI_ASSIGN"
	case MsgAdminOpReq:
		return "ADMIN_OP_REQ"
	case MsgOperationState:
		return "OPERATION_STATE"
	case MsgReboot:
		return "D2N_REBOOT"
	case MsgClientHigh:
		return "CLIENT_HIGH"
	default:
		return "UNKNOWN"
	}
}

// MsgAction distinguishes ASGN/MOD/DEL within a D2N_INFO_SU_SI_ASSIGN.
type MsgAction int

const (
	ActionAssign MsgAction = iota
	ActionModify
	ActionDelete
)

func (a MsgAction) String() string {
	switch a {
	case ActionAssign:
		return "ASGN"
	case ActionModify:
		return "MOD"
	default:
		return "DEL"
	}
}

// SUSIAssign is the payload of a D2N_INFO_SU_SI_ASSIGN message.
type SUSIAssign struct {
	Action   MsgAction
	SUName   string
	SIName   string
	HAState  model.HAState
	// SingleCSI, when true on the N2D response, means the response
	// concerns exactly one CSI added/removed incrementally rather than the
	// whole SUSI (the "single_csi" compatibility mode of §4.7).
	SingleCSI bool
}

// RegSU is the payload of a REG_SU push.
type RegSU struct {
	NodeID     string
	SUNames    []string
	IsFailover bool
}

// OperationState reports an SU or node operational-state change.
type OperationState struct {
	EntityName string
	IsNode     bool
	OperState  model.OperState
}

// ClientHigh seeds the highest client id to a (re)starting daemon so
// resurrecting handles don't collide with newly issued ones.
type ClientHigh struct {
	HighestClientID uint32
}

// Envelope wraps a payload with the msg_id and a uuid correlation id used
// for response matching (admin-op replies, SUSI assign acks).
type Envelope struct {
	MsgID         uint64
	CorrelationID string
	Type          MessageType
	NodeID        string
	Payload       interface{}
}
