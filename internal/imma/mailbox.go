package imma

import "sync"

// CallbackPriority is one of the two mailbox priorities. HIGH is reserved
// for the stale-handle notification and never reorders against an
// already-posted NORMAL item (§4.7.b): it is only ever dequeued ahead of
// NORMAL because it lives in its own queue, drained first.
type CallbackPriority int

const (
	PriorityNormal CallbackPriority = iota
	PriorityHigh
)

// CallbackKind tags the payload carried in a Callback.
type CallbackKind int

const (
	CallbackStaleHandle CallbackKind = iota
	CallbackCCBAbort
	CallbackCCBApply
	CallbackAdminOp
	CallbackUser
)

// Callback is one queued mailbox entry.
type Callback struct {
	Kind    CallbackKind
	CcbID   uint32
	Payload interface{}
}

// Mailbox is the per-handle FIFO with two priorities, single-producer
// (the dispatch thread reading daemon events) / single-consumer (the
// caller's Dispatch call).
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	high   []Callback
	normal []Callback
	closed bool
}

func newMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Push enqueues cb at the tail of its priority's queue and wakes any
// blocked receiver.
func (m *Mailbox) Push(priority CallbackPriority, cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if priority == PriorityHigh {
		m.high = append(m.high, cb)
	} else {
		m.normal = append(m.normal, cb)
	}
	m.cond.Broadcast()
}

// TryPop removes and returns the head of the queue (HIGH drained before
// NORMAL), or ok=false if both are empty.
func (m *Mailbox) TryPop() (Callback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popLocked()
}

func (m *Mailbox) popLocked() (Callback, bool) {
	if len(m.high) > 0 {
		cb := m.high[0]
		m.high = m.high[1:]
		return cb, true
	}
	if len(m.normal) > 0 {
		cb := m.normal[0]
		m.normal = m.normal[1:]
		return cb, true
	}
	return Callback{}, false
}

// Len reports the total queued callback count across both priorities.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.high) + len(m.normal)
}

// BlockingPop blocks until a callback is available or the mailbox is
// closed, used by DISPATCH_BLOCKING. It must never be called with the CB
// lock held (§5).
func (m *Mailbox) BlockingPop() (Callback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.high) == 0 && len(m.normal) == 0 && !m.closed {
		m.cond.Wait()
	}
	return m.popLocked()
}

// Close unblocks any waiter with ok=false going forward.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}
