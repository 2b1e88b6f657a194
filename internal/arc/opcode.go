package arc

import (
	"encoding/binary"
	"fmt"
)

// Breakpoint trap instructions.
const (
	TrapOpcode16 uint16 = 0x7FFF     // BRK_S
	TrapOpcode32 uint32 = 0x256F003F // BRK
)

// TrapBytes returns the trap instruction of the given length (2 or 4) as it
// is laid out in target memory.
func TrapBytes(length int, order binary.ByteOrder) ([]byte, error) {
	switch length {
	case 2:
		b := make([]byte, 2)
		order.PutUint16(b, TrapOpcode16)
		return b, nil
	case 4:
		return InstructionBytes32(TrapOpcode32, order), nil
	default:
		return nil, fmt.Errorf("%w: breakpoint length %d, target supports only 2 or 4",
			ErrInvalidArgument, length)
	}
}

// InstructionBytes32 encodes a 32-bit instruction word. Little-endian cores
// fetch 32-bit instructions as two halfwords, most significant first.
func InstructionBytes32(insn uint32, order binary.ByteOrder) []byte {
	b := make([]byte, 4)
	if order == binary.LittleEndian {
		order.PutUint16(b[0:], uint16(insn>>16))
		order.PutUint16(b[2:], uint16(insn))
		return b
	}
	order.PutUint32(b, insn)
	return b
}

// Instruction32 decodes a 32-bit instruction word laid out by InstructionBytes32.
func Instruction32(b []byte, order binary.ByteOrder) uint32 {
	if order == binary.LittleEndian {
		return uint32(order.Uint16(b[0:]))<<16 | uint32(order.Uint16(b[2:]))
	}
	return order.Uint32(b)
}
