package imma

import "amfcore/internal/amferrors"

// SetImplementer is OI_IMPL_SET. A duplicate call with the same
// implementer name on an already-implementer handle returns EXIST rather
// than treating the request as idempotent: the source returns EXIST and
// this reimplementation preserves that (§9 Open Question 1).
func (cb *CB) SetImplementer(value HandleValue, name string) error {
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
	if h.implementerName != "" {
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.Exist)
	}
	stale := h.Stale()
	cb.mu.Unlock()

	if stale {
		if err := cb.ResurrectDeduped(value); err != nil {
			return err
		}
	}

	if err := cb.syncSend(value, "OI_IMPL_SET", func() error {
		return cb.daemon.SetImplementer(value, name)
	}); err != nil {
		return err
	}

	cb.mu.Lock()
	if h2, still := cb.lookup(value); still {
		h2.implementerName = name
	}
	cb.mu.Unlock()
	return nil
}

// ClearImplementer is OI_IMPL_CLR.
func (cb *CB) ClearImplementer(value HandleValue) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	h, ok := cb.lookup(value)
	if !ok {
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	if h.implementerName == "" {
		return amferrors.Sentinel(amferrors.NotExist)
	}
	h.implementerName = ""
	return nil
}

// syncSend implements the §5 "release lock across send" discipline plus
// the §7 stale-handle TIMEOUT->BAD_HANDLE conversion: it releases the CB
// lock (the caller must not hold it), runs send, and on TIMEOUT consults
// the handle's current staleness to decide the surfaced code.
func (cb *CB) syncSend(value HandleValue, op string, send func() error) error {
	h, err := cb.currentHandleOrExposed(value)
	if err != nil {
		return err
	}
	h.IncReplyPending()

	err = send()

	cb.mu.Lock()
	h2, ok := cb.lookup(value)
	if ok {
		h2.DecReplyPending()
	}
	stale := ok && h2.Stale()
	cb.mu.Unlock()

	if err == nil {
		return nil
	}
	if amferrors.CodeOf(err) == amferrors.Timeout {
		return amferrors.TimeoutForHandle(op, stale, err)
	}
	return err
}
