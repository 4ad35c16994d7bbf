// Package amferrors centralizes the error taxonomy shared by the AMF
// director/node-director protocol and the IMMA-OI client core, so library
// boundary translation rules (stale-handle TIMEOUT -> BadHandle, internal
// failure -> Library) live in one place instead of being re-decided at every
// call site.
package amferrors

import (
	"errors"
	"fmt"
)

// Code is the semantic error kind shared across the protocol and client
// boundary. It intentionally has no relationship to Go's stdlib error
// values; it mirrors the SA_AIS_ERR_* family without naming it.
type Code int

const (
	CodeUnspecified Code = iota
	InvalidParam
	BadHandle
	NotExist
	Exist
	NoMemory
	NoResources
	BadOperation
	TryAgain
	Timeout
	Interrupt
	Library
	Version
	FailedOperation
	RepairPending
	NoOp
)

func (c Code) String() string {
	switch c {
	case InvalidParam:
		return "INVALID_PARAM"
	case BadHandle:
		return "BAD_HANDLE"
	case NotExist:
		return "NOT_EXIST"
	case Exist:
		return "EXIST"
	case NoMemory:
		return "NO_MEMORY"
	case NoResources:
		return "NO_RESOURCES"
	case BadOperation:
		return "BAD_OPERATION"
	case TryAgain:
		return "TRY_AGAIN"
	case Timeout:
		return "TIMEOUT"
	case Interrupt:
		return "INTERRUPT"
	case Library:
		return "LIBRARY"
	case Version:
		return "VERSION"
	case FailedOperation:
		return "FAILED_OPERATION"
	case RepairPending:
		return "REPAIR_PENDING"
	case NoOp:
		return "NO_OP"
	default:
		return "UNSPECIFIED"
	}
}

// Error is the taxonomy-aware error type returned across package boundaries.
// Op names the failing operation (e.g. "saImmOiAdminOperationResult",
// "D2N_INFO_SU_SI_ASSIGN") so logs can correlate without parsing messages.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, amferrors.Sentinel(amferrors.TryAgain)) style
// matching against a bare Code by wrapping it in a codeSentinel comparison.
func (e *Error) Is(target error) bool {
	var c *codeSentinel
	if errors.As(target, &c) {
		return e.Code == c.code
	}
	return false
}

// codeSentinel lets callers write errors.Is(err, amferrors.Sentinel(amferrors.BadHandle)).
type codeSentinel struct{ code Code }

func (c *codeSentinel) Error() string { return c.code.String() }

// Is makes two Sentinel values with the same code match under errors.Is.
func (c *codeSentinel) Is(target error) bool {
	var o *codeSentinel
	if errors.As(target, &o) {
		return c.code == o.code
	}
	return false
}

// Sentinel returns a comparable error value for the given code, for use with errors.Is.
func Sentinel(c Code) error { return &codeSentinel{code: c} }

// New constructs an *Error for the given code/op, optionally wrapping cause.
func New(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

// CodeOf extracts the Code from err if it (or something it wraps) is an *Error
// or a Sentinel value. Returns CodeUnspecified if err is nil or carries no Code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c *codeSentinel
	if errors.As(err, &c) {
		return c.code
	}
	return CodeUnspecified
}

// TimeoutForHandle implements the propagation rule at the library boundary:
// TIMEOUT on a handle whose daemon has restarted (stale) is converted to
// BAD_HANDLE (exposing the handle); on a still-live handle it surfaces as
// TIMEOUT unchanged.
func TimeoutForHandle(op string, stale bool, cause error) *Error {
	if stale {
		return New(BadHandle, op, cause)
	}
	return New(Timeout, op, cause)
}

// Internal wraps an internal subsystem failure as LIBRARY at a public API
// boundary: an NCSCC_RC_FAILURE-equivalent maps to LIBRARY unless a more
// specific code applies. Callers that already have a specific code should
// use New directly instead.
func Internal(op string, cause error) *Error {
	return New(Library, op, cause)
}
