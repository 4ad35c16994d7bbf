package imma

import "amfcore/internal/amferrors"

// CCBOutcome is the result of RECOVER_CCB_OUTCOME.
type CCBOutcome int

const (
	CCBOutcomePending CCBOutcome = iota // daemon says TRY_AGAIN, caller must retry
	CCBOutcomeApply
	CCBOutcomeAbort
)

// Daemon is the local configuration-replication daemon as seen by the
// IMMA-OI client core: everything that crosses the process boundary. The
// real implementation is MDS-based wire I/O, explicitly out of scope
// (§1); tests substitute an in-memory fake.
type Daemon interface {
	// Resurrect asks the daemon to restore handle, returning TryAgain=true
	// while the daemon wants the caller to retry.
	Resurrect(handle HandleValue) (ok bool, tryAgain bool, err error)
	// SetImplementer re-establishes an OI's implementer name on handle
	// (also used for the original, non-recovery set path).
	SetImplementer(handle HandleValue, name string) error
	// Finalize releases handle at the daemon. Best-effort: called during
	// resurrect-rollback and ordinary finalize.
	Finalize(handle HandleValue) error
	// RecoverCCBOutcome asks the daemon how ccbID resolved across its
	// crash. An error carrying amferrors.TryAgain means retry.
	RecoverCCBOutcome(ccbID uint32) (outcome CCBOutcome, err error)

	// AdminOpResultSync replies to a synchronous admin-op invocation over
	// the ordinary request/response channel.
	AdminOpResultSync(invocation InvocationID, result int32) error
	// AdminOpResultAsync replies to an asynchronous admin-op invocation
	// via an async event.
	AdminOpResultAsync(invocation InvocationID, result int32) error
	// AdminOpResultPBE replies to a PBE implementer's admin-op invocation
	// via the cluster-broadcast (fake FEVS) channel.
	AdminOpResultPBE(invocation InvocationID, result int32) error
}

// IsTryAgain reports whether err carries the TRY_AGAIN code, the signal
// every daemon round-trip in this package retries on, bounded by a
// wall-clock budget rather than a fixed attempt count.
func IsTryAgain(err error) bool {
	return amferrors.CodeOf(err) == amferrors.TryAgain
}
