package imma

import (
	"amfcore/internal/amferrors"
	"amfcore/pkg/logging"
)

// DispatchFlags selects dispatch behavior.
type DispatchFlags int

const (
	DispatchOne DispatchFlags = iota
	DispatchAll
	DispatchBlocking
)

// CallbackInvoker is how a dispatched Callback reaches user code. The
// real wiring is per-OI-API user callback tables, out of scope here; tests
// substitute a recording stub.
type CallbackInvoker interface {
	Invoke(cb Callback)
}

// Dispatch runs outside the CB lock (§5) so callbacks may re-enter the
// library. DISPATCH_ONE processes a single message; DISPATCH_ALL drains
// the mailbox; DISPATCH_BLOCKING drains then blocks for the next message.
// If, by the time a message is dequeued, the handle has gone stale, the
// handle is marked exposed and BAD_HANDLE is returned rather than
// recursing into resurrection indefinitely.
func (cb *CB) Dispatch(value HandleValue, flags DispatchFlags, invoker CallbackInvoker) error {
	cb.mu.Lock()
	h, ok := cb.lookup(value)
	if !ok {
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	if h.Exposed() {
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	stale := h.Stale()
	cb.mu.Unlock()

	if stale {
		// A dispatch call on a stale handle triggers an active resurrect,
		// bounded by dispatchClientsToResurrect. With that budget at zero this refuses
		// outright (§8 boundary: "every dispatch call on those handles
		// returns BAD_HANDLE without attempting resurrect").
		if cb.dispatchClientsToResurrect == 0 {
			cb.mu.Lock()
			if h2, still := cb.lookup(value); still {
				h2.markExposed()
			}
			cb.mu.Unlock()
			return amferrors.Sentinel(amferrors.BadHandle)
		}
		// Resurrect resolves this handle's critical CCBs via
		// RECOVER_CCB_OUTCOME on success (§4.7.b / §8 invariant 5) before
		// returning, so they are settled before dispatch proceeds.
		if err := cb.Resurrect(value, true); err != nil {
			return err
		}
	}

	cb.enterDispatch()
	defer cb.exitDispatch()

	switch flags {
	case DispatchOne:
		return cb.dispatchOne(value, invoker)
	case DispatchAll:
		for {
			drained, err := cb.dispatchOneIfAvailable(value, invoker)
			if err != nil {
				return err
			}
			if !drained {
				return nil
			}
		}
	case DispatchBlocking:
		for {
			drained, err := cb.dispatchOneIfAvailable(value, invoker)
			if err != nil {
				return err
			}
			if !drained {
				break
			}
		}
		return cb.dispatchBlockingOne(value, invoker)
	default:
		return amferrors.Sentinel(amferrors.InvalidParam)
	}
}

func (cb *CB) currentHandleOrExposed(value HandleValue) (*Handle, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	h, ok := cb.lookup(value)
	if !ok || h.Exposed() {
		return nil, amferrors.Sentinel(amferrors.BadHandle)
	}
	return h, nil
}

func (cb *CB) dispatchOne(value HandleValue, invoker CallbackInvoker) error {
	h, err := cb.currentHandleOrExposed(value)
	if err != nil {
		return err
	}
	callback, ok := h.mailbox.TryPop()
	if !ok {
		return nil
	}
	return cb.deliverOne(value, h, callback, invoker)
}

func (cb *CB) dispatchOneIfAvailable(value HandleValue, invoker CallbackInvoker) (bool, error) {
	h, err := cb.currentHandleOrExposed(value)
	if err != nil {
		return false, err
	}
	callback, ok := h.mailbox.TryPop()
	if !ok {
		return false, nil
	}
	return true, cb.deliverOne(value, h, callback, invoker)
}

func (cb *CB) dispatchBlockingOne(value HandleValue, invoker CallbackInvoker) error {
	h, err := cb.currentHandleOrExposed(value)
	if err != nil {
		return err
	}
	callback, ok := h.mailbox.BlockingPop()
	if !ok {
		return nil // mailbox closed (handle finalized concurrently)
	}
	return cb.deliverOne(value, h, callback, invoker)
}

// deliverOne invokes the user callback outside the CB lock. On re-entry,
// if the handle has gone stale mid-callback it is marked exposed rather
// than the dispatch loop attempting resurrection recursively.
func (cb *CB) deliverOne(value HandleValue, h *Handle, callback Callback, invoker CallbackInvoker) error {
	if invoker != nil {
		invoker.Invoke(callback)
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	h2, ok := cb.lookup(value)
	if !ok {
		return nil
	}
	if h2.Stale() {
		logging.Debug("IMMAOI", "handle %d went stale during dispatch re-entry, exposing", value)
		h2.markExposed()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	return nil
}
