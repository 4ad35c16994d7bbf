package imma

import (
	"amfcore/internal/amferrors"
	"amfcore/pkg/logging"
)

// InvocationID packs the routing distinction saImmOiAdminOperationResult
// needs (§4.7): the owner in the high 32 bits (ownerPBE for the persistent
// back-end, anything else a regular OI's client id) and a sign bit in the
// low 32 bits marking async vs sync.
type InvocationID uint64

const asyncBit uint32 = 1 << 31

// ownerPBE is the owner sentinel identifying the persistent back-end
// implementer, whose admin-op replies always route over FEVS regardless of
// the async bit.
const ownerPBE uint32 = 0xFFFFFFFF

// PackInvocation builds an InvocationID from an owner id, the async flag,
// and a sequence number (must fit in 31 bits; the top bit is reserved for
// the async flag).
func PackInvocation(owner uint32, async bool, seq uint32) InvocationID {
	low := seq &^ asyncBit
	if async {
		low |= asyncBit
	}
	return InvocationID(uint64(owner)<<32 | uint64(low))
}

// Owner extracts the high 32 bits.
func (id InvocationID) Owner() uint32 { return uint32(id >> 32) }

// IsAsync reports whether the low-sign bit marks this invocation async.
func (id InvocationID) IsAsync() bool { return uint32(id)&asyncBit != 0 }

// IsPBE reports whether this invocation belongs to the PBE implementer.
func (id InvocationID) IsPBE() bool { return id.Owner() == ownerPBE }

// AdminOperationResult implements saImmOiAdminOperationResult's routing:
// synchronous admin-ops reply over the ordinary request/response channel,
// asynchronous ones via an async event, and PBE implementer replies always
// go over the cluster-broadcast (fake FEVS) channel regardless of the
// async bit. A TIMEOUT on the send is absorbed: the op will complete
// eventually and is correlated by invocation id (§7 user-visible
// behavior), so the error is logged, not returned.
func (cb *CB) AdminOperationResult(invocation InvocationID, result int32) error {
	var err error
	switch {
	case invocation.IsPBE():
		err = cb.daemon.AdminOpResultPBE(invocation, result)
	case invocation.IsAsync():
		err = cb.daemon.AdminOpResultAsync(invocation, result)
	default:
		err = cb.daemon.AdminOpResultSync(invocation, result)
	}
	if err != nil && amferrors.CodeOf(err) == amferrors.Timeout {
		logging.Warn("IMMAOI", "admin-op result send for invocation %d timed out, absorbing (will correlate later)", invocation)
		return nil
	}
	return err
}
