package arc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

func TestTrapBytes(t *testing.T) {
	tests := []struct {
		length int
		order  binary.ByteOrder
		want   []byte
	}{
		{2, binary.LittleEndian, []byte{0xFF, 0x7F}},
		{2, binary.BigEndian, []byte{0x7F, 0xFF}},
		{4, binary.LittleEndian, []byte{0x6F, 0x25, 0x3F, 0x00}},
		{4, binary.BigEndian, []byte{0x25, 0x6F, 0x00, 0x3F}},
	}
	for _, tt := range tests {
		got, err := TrapBytes(tt.length, tt.order)
		if err != nil {
			t.Fatalf("TrapBytes(%d, %s) failed: %v", tt.length, tt.order, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("TrapBytes(%d, %s) = % X, want % X", tt.length, tt.order, got, tt.want)
		}
	}
}

func TestTrapBytes_InvalidLength(t *testing.T) {
	for _, length := range []int{0, 1, 3, 8} {
		if _, err := TrapBytes(length, binary.LittleEndian); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("TrapBytes(%d) error = %v, want ErrInvalidArgument", length, err)
		}
	}
}

func TestInstruction32_RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		b := InstructionBytes32(0x12345678, order)
		if got := Instruction32(b, order); got != 0x12345678 {
			t.Errorf("%s: decoded 0x%08x", order, got)
		}
	}
}

func TestActionPointAddresses(t *testing.T) {
	if APMatchValue(0) != 0x220 || APMatchMask(0) != 0x221 || APControl(0) != 0x222 {
		t.Errorf("slot 0 = 0x%x 0x%x 0x%x", APMatchValue(0), APMatchMask(0), APControl(0))
	}
	if APMatchValue(3) != 0x229 || APControl(7) != 0x237 {
		t.Errorf("slot 3 amv = 0x%x, slot 7 ac = 0x%x", APMatchValue(3), APControl(7))
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("adapter gone")
	err := fmt.Errorf("set breakpoint: %w", &TransportError{Op: "write-mem", Address: 0x100, Err: cause})

	if !IsTransportError(err) {
		t.Error("IsTransportError = false for wrapped transport error")
	}
	if !errors.Is(err, cause) {
		t.Error("transport error does not unwrap to its cause")
	}
	if IsTransportError(ErrInvalidArgument) {
		t.Error("IsTransportError = true for a sentinel")
	}

	te := &TransportError{Op: "read-aux", Address: 0x5, Err: cause}
	if got, want := te.Error(), "jtag read-aux 0x00000005: adapter gone"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
