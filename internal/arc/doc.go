// Package arc describes the ARC core as seen through its JTAG debug port.
//
// It holds the auxiliary register map used by the run-control code, the bit
// layout of the DEBUG and STATUS32 registers, the action point register
// layout, the breakpoint trap opcodes, and the collaborator interfaces that a
// JTAG transport has to provide.
//
// # Collaborators
//
// The run-control core never talks to a probe directly. It consumes:
//
//   - Registers: synchronous, single register aux/core reads and writes
//   - Memory: byte-addressed target memory reads and writes
//   - AlgorithmGuard: optional flag bracketing writes that must bypass the
//     normal memory protections (used when restoring patched instructions)
//
// Every call may fail. Failures are returned as *TransportError values and
// the core propagates them unchanged.
//
// # Errors
//
// The package also defines the error taxonomy shared by all run-control
// packages: ErrResourceExhausted, ErrNotHalted, ErrInvalidArgument,
// ErrNotFound, ErrVerificationMismatch and ErrResetConstrained. Use
// errors.Is to test for them.
package arc
