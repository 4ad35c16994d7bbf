package imma

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amfcore/internal/amferrors"
)

type fakeDaemon struct {
	mu sync.Mutex

	resurrectOK       bool
	resurrectErr      error
	setImplementerErr error
	finalizeCalls     []HandleValue
	recoverOutcome    map[uint32]CCBOutcome
	recoverErr        map[uint32]error
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		resurrectOK:    true,
		recoverOutcome: make(map[uint32]CCBOutcome),
		recoverErr:     make(map[uint32]error),
	}
}

func (f *fakeDaemon) Resurrect(handle HandleValue) (bool, bool, error) {
	if f.resurrectErr != nil {
		return false, false, f.resurrectErr
	}
	return f.resurrectOK, false, nil
}

func (f *fakeDaemon) SetImplementer(handle HandleValue, name string) error {
	return f.setImplementerErr
}

func (f *fakeDaemon) Finalize(handle HandleValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls = append(f.finalizeCalls, handle)
	return nil
}

func (f *fakeDaemon) RecoverCCBOutcome(ccbID uint32) (CCBOutcome, error) {
	if err, ok := f.recoverErr[ccbID]; ok {
		return CCBOutcomePending, err
	}
	if o, ok := f.recoverOutcome[ccbID]; ok {
		return o, nil
	}
	return CCBOutcomePending, amferrors.Sentinel(amferrors.TryAgain)
}

func (f *fakeDaemon) AdminOpResultSync(invocation InvocationID, result int32) error  { return nil }
func (f *fakeDaemon) AdminOpResultAsync(invocation InvocationID, result int32) error { return nil }
func (f *fakeDaemon) AdminOpResultPBE(invocation InvocationID, result int32) error   { return nil }

func TestCB_InitThenFinalizeNoOpensIsNoop(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)

	h := cb.Init(1)
	require.NoError(t, cb.Finalize(h.Value))
	assert.Contains(t, daemon.finalizeCalls, h.Value)
}

func TestResurrect_WithImplementerReSetsName(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	require.NoError(t, cb.SetImplementer(h.Value, "Foo"))

	cb.MarkStaleAll()
	assert.True(t, h.Stale())

	require.NoError(t, cb.Resurrect(h.Value, false))
	assert.False(t, h.Stale())
	assert.False(t, h.Exposed())
	assert.Equal(t, "Foo", h.implementerName)
}

func TestResurrect_ImplementerReSetFailureExposesHandle(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	require.NoError(t, cb.SetImplementer(h.Value, "Foo"))
	daemon.setImplementerErr = amferrors.Sentinel(amferrors.Library)

	cb.MarkStaleAll()
	err := cb.Resurrect(h.Value, false)

	require.Error(t, err)
	assert.True(t, h.Exposed())
	assert.Contains(t, daemon.finalizeCalls, h.Value)
}

func TestResurrect_PendingReplyMarksExposed(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	cb.MarkStaleAll()
	h.IncReplyPending()

	err := cb.Resurrect(h.Value, false)
	require.Error(t, err)
	assert.True(t, h.Exposed())
}

func TestExposedHandle_AnyAPICallReturnsBadHandle(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	cb.MarkStaleAll()
	h.IncReplyPending()
	_ = cb.Resurrect(h.Value, false)
	require.True(t, h.Exposed())

	err := cb.SetImplementer(h.Value, "Foo")
	assert.ErrorIs(t, err, amferrors.Sentinel(amferrors.BadHandle))

	err = cb.Dispatch(h.Value, DispatchOne, nil)
	assert.ErrorIs(t, err, amferrors.Sentinel(amferrors.BadHandle))
}

func TestStaleHandle_NonCriticalCCBAbortedImmediately(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	h.OnObjectOp(43)

	cb.MarkStaleAll()

	cb.mu.Lock()
	_, stillActive := h.ccbs[43]
	cb.mu.Unlock()
	assert.False(t, stillActive)

	cbk, ok := h.mailbox.TryPop()
	require.True(t, ok)
	assert.Equal(t, CallbackCCBAbort, cbk.Kind)
	assert.Equal(t, uint32(43), cbk.CcbID)
}

func TestStaleHandle_CriticalCCBResolvedAfterResurrect(t *testing.T) {
	daemon := newFakeDaemon()
	daemon.recoverOutcome[42] = CCBOutcomeApply
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	h.OnObjectOp(42)
	h.OnCompleted(42, true)
	require.True(t, h.IsCritical(42))

	cb.MarkStaleAll()
	require.True(t, h.IsCritical(42), "critical CCB must survive the stale broadcast itself")

	require.NoError(t, cb.Resurrect(h.Value, false))

	assert.False(t, h.IsCritical(42))
	cbk, ok := h.mailbox.TryPop()
	require.True(t, ok)
	assert.Equal(t, CallbackCCBApply, cbk.Kind)
	assert.Equal(t, uint32(42), cbk.CcbID)
}

func TestMailbox_HighPreemptsHeadButNormalFIFOIsUntouched(t *testing.T) {
	m := newMailbox()
	m.Push(PriorityNormal, Callback{Kind: CallbackCCBAbort, CcbID: 1})
	m.Push(PriorityHigh, Callback{Kind: CallbackStaleHandle})
	m.Push(PriorityNormal, Callback{Kind: CallbackCCBAbort, CcbID: 2})

	first, _ := m.TryPop()
	assert.Equal(t, CallbackStaleHandle, first.Kind, "HIGH drains ahead of NORMAL")

	second, _ := m.TryPop()
	assert.Equal(t, uint32(1), second.CcbID, "NORMAL FIFO order is preserved among themselves")

	third, _ := m.TryPop()
	assert.Equal(t, uint32(2), third.CcbID)
}

func TestHandle_ReplyPendingSaturates(t *testing.T) {
	h := newHandle(PackHandle(1, 1))
	for i := 0; i < 300; i++ {
		h.IncReplyPending()
	}
	assert.Equal(t, uint8(maxReplyPending), h.ReplyPending())
}

func TestCB_FinalizeSucceedsWithSaturatedReplyPending(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)
	for i := 0; i < 300; i++ {
		h.IncReplyPending()
	}

	require.NoError(t, cb.Finalize(h.Value))
}

func TestDispatch_WithZeroResurrectBudgetStaleHandleReturnsBadHandle(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 0)
	h := cb.Init(1)
	cb.MarkStaleAll()
	require.True(t, h.Stale())

	err := cb.Dispatch(h.Value, DispatchAll, nil)
	assert.ErrorIs(t, err, amferrors.Sentinel(amferrors.BadHandle))
	assert.True(t, h.Exposed())
}

func TestSetImplementer_DuplicateReturnsExist(t *testing.T) {
	daemon := newFakeDaemon()
	cb := NewCB(daemon, 8)
	h := cb.Init(1)

	require.NoError(t, cb.SetImplementer(h.Value, "Foo"))
	err := cb.SetImplementer(h.Value, "Foo")
	assert.ErrorIs(t, err, amferrors.Sentinel(amferrors.Exist))
}

func TestAdminOperationResult_RoutesByOwnerAndAsyncBit(t *testing.T) {
	id := PackInvocation(7, false, 1)
	assert.False(t, id.IsAsync())
	assert.False(t, id.IsPBE())

	asyncID := PackInvocation(7, true, 1)
	assert.True(t, asyncID.IsAsync())

	pbeID := PackInvocation(ownerPBE, false, 1)
	assert.True(t, pbeID.IsPBE())
}
