package runcontrol

// ExecutionState is the run state of the core as seen by the debugger.
type ExecutionState int

const (
	// StateUnknown is the state before the core was examined.
	StateUnknown ExecutionState = iota
	// StateRunning means the core executes freely.
	StateRunning
	// StateHalted means the core is in debug mode.
	StateHalted
	// StateDebugRunning means the core executes on behalf of the debugger.
	StateDebugRunning
	// StateReset means the core is held in reset.
	StateReset
)

// String returns the string representation of the state.
func (s ExecutionState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateDebugRunning:
		return "debug-running"
	case StateReset:
		return "reset"
	default:
		return "invalid"
	}
}

// DebugReason describes why the core last halted.
type DebugReason int

const (
	// ReasonNone means the core is not halted or the cause is unknown.
	ReasonNone DebugReason = iota
	// ReasonDbgRequest means the debugger asked for the halt.
	ReasonDbgRequest
	// ReasonBreakpoint means a trap instruction or instruction action point fired.
	ReasonBreakpoint
	// ReasonSingleStep means a single step completed.
	ReasonSingleStep
	// ReasonWatchpoint means a memory action point fired.
	ReasonWatchpoint
)

// String returns the string representation of the reason.
func (r DebugReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonDbgRequest:
		return "dbg-request"
	case ReasonBreakpoint:
		return "breakpoint"
	case ReasonSingleStep:
		return "single-step"
	case ReasonWatchpoint:
		return "watchpoint"
	default:
		return "invalid"
	}
}

// CoreRunState is the run state of one core. Reason is only meaningful
// right after a debug entry.
type CoreRunState struct {
	State   ExecutionState
	Reason  DebugReason
	SavedPC uint32
}
