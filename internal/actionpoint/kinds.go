package actionpoint

import (
	"fmt"
	"strings"

	"github.com/dshills/arcdbg/internal/arc"
)

// TargetKind selects what a comparator matches against.
type TargetKind int

const (
	// InstructionAddress matches the address of an executed instruction.
	InstructionAddress TargetKind = iota
	// MemoryAddress matches the address of a load or store.
	MemoryAddress
	// AuxRegisterAddress matches an aux register access.
	AuxRegisterAddress
)

// String returns a string representation of the target kind.
func (k TargetKind) String() string {
	switch k {
	case InstructionAddress:
		return "instruction-address"
	case MemoryAddress:
		return "memory-address"
	case AuxRegisterAddress:
		return "aux-register-address"
	default:
		return "unknown"
	}
}

func (k TargetKind) control() uint32 {
	switch k {
	case MemoryAddress:
		return arc.APTargetMemoryAddr
	case AuxRegisterAddress:
		return arc.APTargetAuxRegAddr
	default:
		return arc.APTargetInstAddr
	}
}

// TransactionKind selects which accesses trigger a comparator.
type TransactionKind int

const (
	// Disabled marks a free comparator.
	Disabled TransactionKind = iota
	// Read triggers on reads.
	Read
	// Write triggers on writes.
	Write
	// ReadWrite triggers on any access.
	ReadWrite
)

// String returns a string representation of the transaction kind.
func (k TransactionKind) String() string {
	switch k {
	case Disabled:
		return "disabled"
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

func (k TransactionKind) control() uint32 {
	switch k {
	case Read:
		return arc.APTransactionRead
	case Write:
		return arc.APTransactionWrite
	case ReadWrite:
		return arc.APTransactionReadWrite
	default:
		return arc.APTransactionDisable
	}
}

// ParseTransactionKind parses "read", "write" or "readwrite" (also "rw" and
// "access").
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(s) {
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	case "readwrite", "rw", "access", "a":
		return ReadWrite, nil
	}
	return Disabled, fmt.Errorf("%w: transaction kind %q", arc.ErrInvalidArgument, s)
}
