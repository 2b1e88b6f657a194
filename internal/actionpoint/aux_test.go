package actionpoint

import (
	"errors"
	"testing"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/arc/sim"
)

func TestAuxPoints_AddRemove(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	alloc := NewAllocator(core, 4, nil)
	aux := NewAuxPoints(alloc, nil)

	// A hardware breakpoint occupies slot 0 so aux points land after it.
	alloc.Allocate(0x1000, InstructionAddress, ReadWrite, "bp")

	slot, err := aux.Add(0x40C, Write)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if slot != 1 {
		t.Errorf("expected slot 1, got %d", slot)
	}
	if got := core.Aux(arc.APControl(1)); got != arc.APTransactionWrite|arc.APTargetAuxRegAddr {
		t.Errorf("AC1 = 0x%x", got)
	}
	aux.Add(0x48, Read)

	if got := aux.Registered(); len(got) != 2 || got[0] != 0x40C || got[1] != 0x48 {
		t.Errorf("Registered() = %v", got)
	}

	// The second watch is found even though it is not in the first used slot.
	if err := aux.Remove(0x48); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if alloc.Used() != 2 {
		t.Errorf("used = %d, want 2", alloc.Used())
	}

	if err := aux.Remove(0x999); !errors.Is(err, arc.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// An instruction slot matching the same value is never mistaken for an aux point.
	if err := aux.Remove(0x1000); !errors.Is(err, arc.ErrNotFound) {
		t.Errorf("expected ErrNotFound for breakpoint slot, got %v", err)
	}
}

func TestAuxPoints_ExhaustedPool(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	alloc := NewAllocator(core, 1, nil)
	aux := NewAuxPoints(alloc, nil)

	if _, err := aux.Add(0x10, Read); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := aux.Add(0x20, Read); !errors.Is(err, arc.ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
}
