// Package imma implements the IMMA-OI client core: per-process handle
// state, stale->resurrect recovery, a callback mailbox serializing user
// callbacks, and two-phase CCB participation with critical-phase outcome
// recovery, per spec §4.7/§5.
package imma

// HandleValue is the 64-bit opaque handle: high 32 bits are the daemon's
// monotonic-per-lifetime client id, low 32 bits are the node id. Encoding
// follows IMMSV_PACK_HANDLE/UNPACK from §6 conceptually, endianness being
// implementation-defined here.
type HandleValue uint64

// PackHandle builds a HandleValue from a client id and node id.
func PackHandle(clientID, nodeID uint32) HandleValue {
	return HandleValue(uint64(clientID)<<32 | uint64(nodeID))
}

// ClientID extracts the high 32 bits.
func (h HandleValue) ClientID() uint32 { return uint32(h >> 32) }

// NodeID extracts the low 32 bits.
func (h HandleValue) NodeID() uint32 { return uint32(h) }

// maxReplyPending is the saturation ceiling for Handle.replyPending: once
// reached further increments are no-ops, and the counter never overflows
// past 0xff (§8 boundary test).
const maxReplyPending = 0xff

// handleState is the three-way FSM of §4.7: healthy, stale, exposed.
type handleState int

const (
	stateHealthy handleState = iota
	stateStale
	stateExposed
)

// Handle is the per-handle record owned exclusively by its creating
// process. The CB's patricia-tree-equivalent keys on Value.
type Handle struct {
	Value HandleValue

	state handleState

	selObjUsable bool
	replyPending uint8

	implementerID   uint32
	implementerName string
	isPbe           bool

	ccbs map[uint32]*ccbRecord

	mailbox *Mailbox
}

func newHandle(value HandleValue) *Handle {
	return &Handle{
		Value:        value,
		selObjUsable: false,
		ccbs:         make(map[uint32]*ccbRecord),
		mailbox:      newMailbox(),
	}
}

// Stale reports whether the handle believes its daemon has restarted.
func (h *Handle) Stale() bool { return h.state == stateStale }

// Exposed reports whether the handle is permanently bad: resurrection is
// impossible or dangerous and every subsequent API call must return
// BAD_HANDLE (§8 invariant 1).
func (h *Handle) Exposed() bool { return h.state == stateExposed }

// markStale transitions a healthy handle to stale; a no-op if already
// stale or exposed.
func (h *Handle) markStale() {
	if h.state == stateHealthy {
		h.state = stateStale
	}
}

// markExposed transitions any handle to exposed. Exposure is terminal.
func (h *Handle) markExposed() {
	h.state = stateExposed
}

// clearStale transitions stale back to healthy after a successful
// resurrect. It is a logic error to call this on an exposed handle; callers
// must check Exposed() first.
func (h *Handle) clearStale() {
	if h.state == stateStale {
		h.state = stateHealthy
	}
}

// IncReplyPending saturates at maxReplyPending rather than wrapping.
func (h *Handle) IncReplyPending() {
	if h.replyPending < maxReplyPending {
		h.replyPending++
	}
}

// DecReplyPending is a no-op at zero.
func (h *Handle) DecReplyPending() {
	if h.replyPending > 0 {
		h.replyPending--
	}
}

// ReplyPending reports the current saturating pending-reply count.
func (h *Handle) ReplyPending() uint8 { return h.replyPending }
