package model

// CLCCommand identifies which component life-cycle script/up-call to run.
type CLCCommand int

const (
	CLCInstantiate CLCCommand = iota
	CLCTerminate
	CLCCleanup
	CLCAmstart
	CLCAmstop
	CLCHealthcheck
)

func (c CLCCommand) String() string {
	switch c {
	case CLCInstantiate:
		return "INSTANTIATE"
	case CLCTerminate:
		return "TERMINATE"
	case CLCCleanup:
		return "CLEANUP"
	case CLCAmstart:
		return "AMSTART"
	case CLCAmstop:
		return "AMSTOP"
	case CLCHealthcheck:
		return "HEALTHCHECK"
	default:
		return "UNKNOWN"
	}
}

// RegistrationState tracks whether a pre-instantiable component has
// registered with the local runtime after being instantiated.
type RegistrationState int

const (
	RegUnregistered RegistrationState = iota
	RegRegistered
)

// ComponentErrorSource is the opaque error-source enum passed to CLEANUP via
// OSAF_COMPONENT_ERROR_SOURCE. The planner treats it as opaque; it exists
// purely to be logged and forwarded.
type ComponentErrorSource int

const (
	ErrSrcNone ComponentErrorSource = iota
	ErrSrcHealthcheckFailure
	ErrSrcProxiedRegistrationTimeout
	ErrSrcForcedFailover
	ErrSrcOther
)

// Component is a process-level entity inside an SU.
type Component struct {
	Idx Index

	Name string
	Type string

	PreInstantiable bool
	Capability      string

	// Timeouts, keyed by CLCCommand, in milliseconds.
	Timeouts map[CLCCommand]int

	RegistrationState RegistrationState

	// Proxy is the Index of this component's proxy component, or 0 if none.
	Proxy Index
	// Proxied lists components this one proxies for.
	Proxied []Index

	CSIAssignments []Index

	ErrorInfo    ComponentErrorSource
	RestartCount int

	PendingCallbacks []uint64

	Presence Presence

	// EnvList is the component's statically configured environment entries.
	EnvList []Attribute

	SU Index
}

// IsNPI reports whether the component is non-pre-instantiable, the
// condition that decides whether CSI attributes are flattened into the CLC
// environment (only for NPI components with exactly one CSI assigned).
func (c *Component) IsNPI() bool { return !c.PreInstantiable }
