package arc

import (
	"errors"
	"fmt"
)

// Run-control errors.
var (
	// ErrResourceExhausted is returned when no action point slot is free.
	ErrResourceExhausted = errors.New("no action point available")

	// ErrNotHalted is returned by operations that need a halted core.
	ErrNotHalted = errors.New("target not halted")

	// ErrInvalidArgument is returned for unsupported breakpoint lengths and
	// watchpoint modes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when removing an aux register action point
	// that was never added.
	ErrNotFound = errors.New("action point not found")

	// ErrVerificationMismatch describes a software breakpoint whose read-back
	// differs from the trap opcode. It is logged, never returned by installs.
	ErrVerificationMismatch = errors.New("breakpoint verification mismatch")

	// ErrResetConstrained is returned when a halt is requested while the
	// system reset also drives the debug reset.
	ErrResetConstrained = errors.New("cannot halt while nSRST pulls nTRST")
)

// TransportError reports a failed register or memory access.
type TransportError struct {
	Op      string // "read-aux", "write-aux", "read-core", "write-core", "read-mem", "write-mem"
	Address uint32 // register address/number or memory address
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("jtag %s 0x%08x: %v", e.Op, e.Address, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
