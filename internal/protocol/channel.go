package protocol

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"amfcore/pkg/logging"
)

// FatalGapHandler is invoked when a peer's msg_id sequence gaps: the
// invariant is that this is a fatal local error (§4.5), logged and
// process-reboot-inducing. The real reboot trigger lives outside this
// package; tests and the CLI may substitute a no-op.
type FatalGapHandler interface {
	FatalMsgIDGap(nodeID string, expected, got uint64)
}

// Transport is the minimum a PairChannel needs to actually deliver an
// envelope; the real implementation is supplied by cmd/amfd and
// cmd/amfnd's wire layer. Kept minimal and undefined on purpose (§4.5:
// "their on-wire layout is implementation-defined").
type Transport interface {
	Deliver(env Envelope) error
}

// resendBufferSize bounds how many unacked outbound envelopes a PairChannel
// retains for resend.
const resendBufferSize = 256

// PairChannel is the per-node D<->ND message channel: monotonic msg_id in
// each direction, strict-gap assertion on receive, and a bounded resend
// buffer of unacked outbound envelopes.
type PairChannel struct {
	NodeID string

	mu          sync.Mutex
	outNext     uint64
	inExpected  uint64
	transport   Transport
	onFatalGap  FatalGapHandler
	unacked     []Envelope
	highestAck  uint64
}

// NewPairChannel builds a PairChannel for nodeID, delivering outbound
// envelopes through transport and reporting fatal msg_id gaps to onFatalGap.
func NewPairChannel(nodeID string, transport Transport, onFatalGap FatalGapHandler) *PairChannel {
	return &PairChannel{
		NodeID:     nodeID,
		outNext:    1,
		inExpected: 1,
		transport:  transport,
		onFatalGap: onFatalGap,
	}
}

// Send assigns the next outbound msg_id, stamps a correlation id, records
// the envelope for resend, and hands it to the transport.
func (c *PairChannel) Send(msgType MessageType, payload interface{}) (Envelope, error) {
	c.mu.Lock()
	env := Envelope{
		MsgID:         c.outNext,
		CorrelationID: uuid.New().String(),
		Type:          msgType,
		NodeID:        c.NodeID,
		Payload:       payload,
	}
	c.outNext++
	c.unacked = append(c.unacked, env)
	if len(c.unacked) > resendBufferSize {
		c.unacked = c.unacked[len(c.unacked)-resendBufferSize:]
	}
	transport := c.transport
	c.mu.Unlock()

	logging.Debug("Protocol", "-> node %s msg_id=%d %s", c.NodeID, env.MsgID, msgType)
	if transport == nil {
		return env, fmt.Errorf("protocol: no transport bound for node %s", c.NodeID)
	}
	return env, transport.Deliver(env)
}

// AssertInbound implements avnd_msgid_assert: the receiver asserts strict
// monotonicity on every inbound msg_id. A gap is a fatal local error.
func (c *PairChannel) AssertInbound(msgID uint64) error {
	c.mu.Lock()
	expected := c.inExpected
	if msgID != expected {
		c.mu.Unlock()
		if c.onFatalGap != nil {
			c.onFatalGap.FatalMsgIDGap(c.NodeID, expected, msgID)
		}
		return fmt.Errorf("protocol: msg_id gap on node %s: expected %d, got %d", c.NodeID, expected, msgID)
	}
	c.inExpected = msgID + 1
	c.mu.Unlock()
	return nil
}

// Ack records that the peer has acknowledged up to ackedMsgID, trimming
// the resend buffer of everything at or below it. Every D->ND message is
// Ack'd with the highest received id.
func (c *PairChannel) Ack(ackedMsgID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ackedMsgID > c.highestAck {
		c.highestAck = ackedMsgID
	}
	kept := c.unacked[:0]
	for _, e := range c.unacked {
		if e.MsgID > ackedMsgID {
			kept = append(kept, e)
		}
	}
	c.unacked = kept
}

// Resend redelivers every still-unacked outbound envelope, used after a
// director standby->active role switch or a reconnect.
func (c *PairChannel) Resend() error {
	c.mu.Lock()
	pending := append([]Envelope(nil), c.unacked...)
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return fmt.Errorf("protocol: no transport bound for node %s", c.NodeID)
	}
	for _, env := range pending {
		logging.Info("Protocol", "resending node %s msg_id=%d %s", c.NodeID, env.MsgID, env.Type)
		if err := transport.Deliver(env); err != nil {
			return err
		}
	}
	return nil
}

// SeedClientHigh sends CLIENT_HIGH with highestClientID, the reseed a
// director sends on standby->active role switch so resurrecting IMMA
// handles don't collide with newly issued client ids.
func (c *PairChannel) SeedClientHigh(highestClientID uint32) (Envelope, error) {
	return c.Send(MsgClientHigh, ClientHigh{HighestClientID: highestClientID})
}
