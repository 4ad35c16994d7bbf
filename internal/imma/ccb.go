package imma

// ccbOpState tracks per-ccbId OI participation state.
type ccbOpState int

const (
	ccbActive   ccbOpState = iota // create/modify/delete seen, no completed upcall yet
	ccbCritical                   // completed upcall returned OK; must survive a daemon crash
	ccbTerminated
)

// ccbRecord is the per-ccbId OI participation record.
type ccbRecord struct {
	CcbID uint32
	State ccbOpState

	// isPbeSynthetic marks a record fabricated by seeing a completed
	// callback with no prior create/modify (the PBE recovery path, §9 Open
	// Question 2). The record carries no op value of its own; this flag is
	// the only mark of the hack, kept behind this single predicate rather
	// than spread through the state machine.
	isPbeSynthetic bool
}

// OnObjectOp records that the OI has seen an OBJ_CREATE/MODIFY/DELETE for
// ccbID, creating the record on first sight.
func (h *Handle) OnObjectOp(ccbID uint32) {
	if _, ok := h.ccbs[ccbID]; !ok {
		h.ccbs[ccbID] = &ccbRecord{CcbID: ccbID, State: ccbActive}
	}
}

// isPbeSyntheticOp is the single predicate isolating the §9 Open Question 2
// hack: a completed-callback upcall on a ccbId the OI never saw a
// create/modify for is synthesized as PBE recovery; the fabricated record
// is marked only by isPbeSynthetic and holds no op value.
func isPbeSyntheticOp(existing bool) bool { return !existing }

// OnCompleted promotes ccbID to critical iff userOK is true, the user
// callback's return value. If no record exists yet (the PBE recovery
// path), one is fabricated and flagged isPbeSynthetic.
func (h *Handle) OnCompleted(ccbID uint32, userOK bool) {
	rec, existed := h.ccbs[ccbID]
	if !existed {
		rec = &ccbRecord{CcbID: ccbID, isPbeSynthetic: isPbeSyntheticOp(existed)}
		h.ccbs[ccbID] = rec
	}
	if userOK {
		rec.State = ccbCritical
	}
}

// OnApplyOrAbort terminates ccbID's record unconditionally; APPLY and
// ABORT are both terminal for OI-side participation.
func (h *Handle) OnApplyOrAbort(ccbID uint32) {
	if rec, ok := h.ccbs[ccbID]; ok {
		rec.State = ccbTerminated
	}
	delete(h.ccbs, ccbID)
}

// IsCritical reports whether ccbID is currently critical.
func (h *Handle) IsCritical(ccbID uint32) bool {
	rec, ok := h.ccbs[ccbID]
	return ok && rec.State == ccbCritical
}

// CriticalCCBs returns every ccbId this handle currently holds critical,
// the set that must be resolved via RECOVER_CCB_OUTCOME on stale-broadcast
// before APPLY/ABORT is delivered to the OI.
func (h *Handle) CriticalCCBs() []uint32 {
	var out []uint32
	for id, rec := range h.ccbs {
		if rec.State == ccbCritical {
			out = append(out, id)
		}
	}
	return out
}

// NonCriticalCCBs returns every ccbId this handle has an active
// (non-critical, non-terminated) record for.
func (h *Handle) NonCriticalCCBs() []uint32 {
	var out []uint32
	for id, rec := range h.ccbs {
		if rec.State == ccbActive {
			out = append(out, id)
		}
	}
	return out
}
