package imma

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"amfcore/internal/amferrors"
	"amfcore/pkg/logging"
)

// resurrectRetryBudget bounds how long Resurrect retries TRY_AGAIN, per
// §4.7.a ("a small bounded time, ~2s").
const resurrectRetryBudget = 2 * time.Second

// resurrectRetryInterval is the pause between TRY_AGAIN retries.
const resurrectRetryInterval = 50 * time.Millisecond

// recoverCCBRetryBudget bounds RECOVER_CCB_OUTCOME TRY_AGAIN retries during
// stale-handle critical-CCB recovery (§4.7.b).
const recoverCCBRetryBudget = 10 * time.Second

// CB is the per-process IMMA-OI singleton ("cb" in §4.7/§5). One exclusive
// write lock serializes all reads/writes of the handle table; it must
// never be held across a blocking daemon call, a user callback, or a
// blocking mailbox receive (§5).
type CB struct {
	mu sync.Mutex

	handles map[HandleValue]*Handle
	daemon  Daemon

	pendDis int
	pendFin int

	// dispatchClientsToResurrect bounds the number of *active* resurrects
	// triggered per protocol fault (a stale broadcast); reactive
	// resurrects during ordinary API calls are unbounded but each is
	// gated by Exposed().
	dispatchClientsToResurrect int
	activeResurrects           int

	resurrectGroup singleflight.Group

	nextClientID uint32
}

// NewCB builds a CB bound to daemon, with the active-resurrect bound set
// to maxActiveResurrects (0 disables active resurrection entirely, per the
// §8 boundary test).
func NewCB(daemon Daemon, maxActiveResurrects int) *CB {
	return &CB{
		handles:                    make(map[HandleValue]*Handle),
		daemon:                     daemon,
		dispatchClientsToResurrect: maxActiveResurrects,
		nextClientID:               1,
	}
}

// SeedClientHigh applies CLIENT_HIGH/A2ND_IMM_OM_CLIENTHIGH-style reseed:
// future handles issued by Init must use a client id higher than
// highestClientID so a restarted daemon's freshly issued ids never collide
// with a resurrecting one.
func (cb *CB) SeedClientHigh(highestClientID uint32) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if highestClientID+1 > cb.nextClientID {
		cb.nextClientID = highestClientID + 1
	}
}

// Init creates a new healthy handle for nodeID and returns it. init with no
// prior opens, immediately finalized, is a documented no-op (§8); that
// invariant lives in Finalize, not here.
func (cb *CB) Init(nodeID uint32) *Handle {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	clientID := cb.nextClientID
	cb.nextClientID++
	h := newHandle(PackHandle(clientID, nodeID))
	cb.handles[h.Value] = h
	return h
}

// lookup re-fetches the handle by value under the CB lock. Every pointer
// obtained before a lock-drop must be discarded and re-fetched through
// this method (§4.7.a step 3, §5).
func (cb *CB) lookup(value HandleValue) (*Handle, bool) {
	h, ok := cb.handles[value]
	return h, ok
}

// Finalize releases handle. With pend_dis > 0 the shutdown is deferred
// (pend_fin++) rather than performed immediately; the last dispatch to
// exit drains pend_fin (§5 deferred-shutdown discipline).
func (cb *CB) Finalize(value HandleValue) error {
	cb.mu.Lock()
	h, ok := cb.handles[value]
	if !ok {
		cb.mu.Unlock()
		return nil // init -> finalize on an already-gone handle is a no-op
	}
	if cb.pendDis > 0 {
		cb.pendFin++
		cb.mu.Unlock()
		return nil
	}
	delete(cb.handles, value)
	cb.mu.Unlock()

	h.mailbox.Close()
	// Finalize with the daemon down must still succeed and shut the
	// handle down cleanly; errors here are logged, not surfaced.
	if err := cb.daemon.Finalize(value); err != nil {
		logging.Debug("IMMAOI", "finalize of handle %d: daemon finalize failed (ignored): %v", value, err)
	}
	return nil
}

// enterDispatch/exitDispatch implement the pend_dis/pend_fin refcount
// discipline: every dispatch increments on entry, decrements on exit, and
// the dispatch that brings pend_dis back to zero drains any deferred
// finalizes staged while it (or a concurrent dispatch) was running.
func (cb *CB) enterDispatch() {
	cb.mu.Lock()
	cb.pendDis++
	cb.mu.Unlock()
}

func (cb *CB) exitDispatch() {
	cb.mu.Lock()
	cb.pendDis--
	if cb.pendDis == 0 && cb.pendFin > 0 {
		drained := cb.pendFin
		cb.pendFin = 0
		cb.mu.Unlock()
		logging.Debug("IMMAOI", "draining %d deferred finalize(s)", drained)
		return
	}
	cb.mu.Unlock()
}

// MarkStaleAll transitions every handle with a usable selection object to
// stale and pushes IMMA_CALLBACK_STALE_HANDLE at HIGH priority, the
// reaction to a daemon-restart broadcast (§4.7.b). Handles without a
// usable selection object (never called SelectionObjectGet) are skipped
// for the callback but remain subject to critical-CCB recovery, per
// original_source/imma_proc.c.
func (cb *CB) MarkStaleAll() {
	cb.mu.Lock()
	snapshot := make([]*Handle, 0, len(cb.handles))
	for _, h := range cb.handles {
		snapshot = append(snapshot, h)
	}
	cb.mu.Unlock()

	for _, h := range snapshot {
		cb.mu.Lock()
		h.markStale()
		usable := h.selObjUsable
		if usable {
			h.selObjUsable = false
		}
		cb.mu.Unlock()

		if usable {
			h.mailbox.Push(PriorityHigh, Callback{Kind: CallbackStaleHandle})
		}
		cb.handleStaleCCBs(h)
	}
}

// handleStaleCCBs implements the CCB half of §4.7.b: non-critical records
// are aborted immediately (NORMAL priority, so they land after any
// already-posted ops for the same ccbId); critical records are postponed
// until resurrect, then resolved via RECOVER_CCB_OUTCOME.
func (cb *CB) handleStaleCCBs(h *Handle) {
	cb.mu.Lock()
	nonCritical := h.NonCriticalCCBs()
	for _, id := range nonCritical {
		h.OnApplyOrAbort(id)
	}
	cb.mu.Unlock()

	for _, id := range nonCritical {
		h.mailbox.Push(PriorityNormal, Callback{Kind: CallbackCCBAbort, CcbID: id})
	}
	// Critical CCBs are left in place; ResolveCriticalCCBs (driven after a
	// successful resurrect) consults the daemon for each.
}

// ResolveCriticalCCBs is called after Resurrect succeeds for h: every
// still-critical ccbId is resolved via RECOVER_CCB_OUTCOME, retried on
// TRY_AGAIN up to recoverCCBRetryBudget, and the corresponding
// OI_CCB_APPLY/OI_CCB_ABORT is posted at NORMAL priority.
func (cb *CB) ResolveCriticalCCBs(h *Handle) {
	cb.mu.Lock()
	critical := h.CriticalCCBs()
	cb.mu.Unlock()

	for _, ccbID := range critical {
		outcome, err := cb.recoverCCBOutcomeWithRetry(ccbID)
		if err != nil {
			logging.Error("IMMAOI", err, "RECOVER_CCB_OUTCOME(%d) failed, leaving record in place", ccbID)
			continue
		}
		cb.mu.Lock()
		h.OnApplyOrAbort(ccbID)
		cb.mu.Unlock()

		kind := CallbackCCBAbort
		if outcome == CCBOutcomeApply {
			kind = CallbackCCBApply
		}
		h.mailbox.Push(PriorityNormal, Callback{Kind: kind, CcbID: ccbID})
	}
}

func (cb *CB) recoverCCBOutcomeWithRetry(ccbID uint32) (CCBOutcome, error) {
	deadline := time.Now().Add(recoverCCBRetryBudget)
	for {
		outcome, err := cb.daemon.RecoverCCBOutcome(ccbID)
		if err == nil && outcome != CCBOutcomePending {
			return outcome, nil
		}
		if err != nil && !IsTryAgain(err) {
			return CCBOutcomePending, err
		}
		if time.Now().After(deadline) {
			return CCBOutcomePending, amferrors.New(amferrors.Timeout, "RECOVER_CCB_OUTCOME", nil)
		}
		time.Sleep(resurrectRetryInterval)
	}
}
