package imma

import (
	"fmt"
	"time"

	"amfcore/internal/amferrors"
	"amfcore/pkg/logging"
)

// Resurrect implements §4.7.a end to end: preconditions under lock, send
// with the lock released, reacquire-and-reverify, then (for OIs) re-set
// the implementer name before declaring success. It is bounded by
// dispatchClientsToResurrect when active (called off a stale broadcast
// rather than reactively from an API call); pass active=false for the
// reactive path, which is ungated but still refuses a handle that is
// already Exposed().
func (cb *CB) Resurrect(value HandleValue, active bool) error {
	cb.mu.Lock()
	h, ok := cb.lookup(value)
	if !ok {
		cb.mu.Unlock()
		return amferrors.New(amferrors.BadHandle, "RESURRECT", fmt.Errorf("handle %d unknown", value))
	}
	if h.Exposed() {
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	if !h.Stale() {
		cb.mu.Unlock()
		return nil // already healthy, nothing to do
	}
	if h.ReplyPending() != 0 {
		// pending replies make the handle unrecoverable.
		h.markExposed()
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	if active {
		if cb.dispatchClientsToResurrect == 0 || cb.activeResurrects >= cb.dispatchClientsToResurrect {
			cb.mu.Unlock()
			return amferrors.Sentinel(amferrors.TryAgain)
		}
		cb.activeResurrects++
	}
	priorImplementerName := h.implementerName
	wasImplementer := h.implementerName != ""
	cb.mu.Unlock()

	if active {
		defer func() {
			cb.mu.Lock()
			cb.activeResurrects--
			cb.mu.Unlock()
		}()
	}

	ok2, err := cb.sendResurrectWithRetry(value)
	if err != nil {
		cb.mu.Lock()
		if h2, still := cb.lookup(value); still {
			h2.markExposed()
		}
		cb.mu.Unlock()
		return err
	}
	if !ok2 {
		cb.mu.Lock()
		if h2, still := cb.lookup(value); still {
			h2.markExposed()
		}
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}

	cb.mu.Lock()
	h, ok = cb.lookup(value)
	if !ok || h.Exposed() {
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}
	h.clearStale()
	cb.mu.Unlock()

	if !wasImplementer {
		cb.resolveCriticalCCBsAfterResurrect(value)
		return nil
	}

	// Re-set the prior implementer name via the normal set-implementer
	// API before declaring success. Class/object implementer associations
	// are preserved by the daemon across resurrect and need not be
	// reissued (§4.7.a step 4).
	if err := cb.daemon.SetImplementer(value, priorImplementerName); err != nil {
		logging.Error("IMMAOI", err, "implementer re-set failed after resurrect of handle %d, reverting", value)
		_ = cb.daemon.Finalize(value)
		cb.mu.Lock()
		if h2, still := cb.lookup(value); still {
			h2.markExposed()
		}
		cb.mu.Unlock()
		return amferrors.Sentinel(amferrors.BadHandle)
	}

	cb.mu.Lock()
	if h2, still := cb.lookup(value); still {
		h2.implementerName = priorImplementerName
	}
	cb.mu.Unlock()
	cb.resolveCriticalCCBsAfterResurrect(value)
	return nil
}

// resolveCriticalCCBsAfterResurrect re-fetches the handle by value and
// drives ResolveCriticalCCBs, the §4.7.b step every successful resurrect
// must be followed by (§8 invariant 5). Centralized here so every
// resurrect-success path (the dispatch reactive path, SetImplementer's
// ResurrectDeduped path) gets it without duplicating the call.
func (cb *CB) resolveCriticalCCBsAfterResurrect(value HandleValue) {
	if h, err := cb.currentHandleOrExposed(value); err == nil {
		cb.ResolveCriticalCCBs(h)
	}
}

// sendResurrectWithRetry sends RESURRECT to the daemon, retrying while it
// answers TRY_AGAIN, bounded by resurrectRetryBudget. The CB lock must
// already be released by the caller.
func (cb *CB) sendResurrectWithRetry(value HandleValue) (bool, error) {
	deadline := time.Now().Add(resurrectRetryBudget)
	for {
		ok, tryAgain, err := cb.daemon.Resurrect(value)
		if err != nil {
			return false, err
		}
		if !tryAgain {
			return ok, nil
		}
		if time.Now().After(deadline) {
			return false, amferrors.New(amferrors.Timeout, "RESURRECT", nil)
		}
		time.Sleep(resurrectRetryInterval)
	}
}

// ResurrectDeduped collapses concurrent resurrection attempts against the
// same stale handle into a single RESURRECT round-trip via singleflight,
// the reactive path every API entry point calls when it observes a stale
// handle mid-operation.
func (cb *CB) ResurrectDeduped(value HandleValue) error {
	_, err, _ := cb.resurrectGroup.Do(fmt.Sprintf("%d", value), func() (interface{}, error) {
		return nil, cb.Resurrect(value, false)
	})
	return err
}
