package breakpoint

import (
	"errors"
	"testing"

	"github.com/dshills/arcdbg/internal/arc"
)

func TestWatchpointManager_ModeToTransaction(t *testing.T) {
	tests := []struct {
		mode Mode
		want uint32
	}{
		{Read, arc.APTransactionRead},
		{Write, arc.APTransactionWrite},
		{Access, arc.APTransactionReadWrite},
	}
	for _, tt := range tests {
		f := newFixture(t, 2)
		wp := NewWatchpoint(0x800, 4, tt.mode)
		if err := f.wps.Add(wp); err != nil {
			t.Fatalf("%s: Add failed: %v", tt.mode, err)
		}
		if got := f.core.Aux(arc.APControl(0)); got != tt.want|arc.APTargetMemoryAddr {
			t.Errorf("%s: AC0 = 0x%x", tt.mode, got)
		}
		if got := f.core.Aux(arc.APMatchValue(0)); got != 0x800 {
			t.Errorf("%s: AMV0 = 0x%x", tt.mode, got)
		}
	}
}

func TestWatchpointManager_InvalidMode(t *testing.T) {
	f := newFixture(t, 2)
	wp := NewWatchpoint(0x800, 4, Mode(7))
	if err := f.wps.Add(wp); !errors.Is(err, arc.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if f.wps.Len() != 0 || f.alloc.Used() != 0 {
		t.Errorf("invalid watchpoint left state behind")
	}
	if _, err := ParseMode("exec"); !errors.Is(err, arc.ErrInvalidArgument) {
		t.Errorf("ParseMode accepted exec: %v", err)
	}
}

func TestWatchpointManager_SharesPoolWithBreakpoints(t *testing.T) {
	f := newFixture(t, 2)
	f.bps.Add(New(0x10, 4, Hardware))
	if err := f.wps.Add(NewWatchpoint(0x20, 4, Write)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	extra := NewWatchpoint(0x30, 4, Read)
	if err := f.wps.Add(extra); !errors.Is(err, arc.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}

	wp, ok := f.wps.FindBySlot(1)
	if !ok || wp.Address != 0x20 {
		t.Errorf("FindBySlot(1) = %v, %v", wp, ok)
	}
}

func TestWatchpointManager_SetUnset(t *testing.T) {
	f := newFixture(t, 2)
	wp := NewWatchpoint(0x20, 4, Access)

	if err := f.wps.Unset(wp); err != nil {
		t.Fatalf("Unset of idle watchpoint failed: %v", err)
	}
	f.wps.Add(wp)
	if err := f.wps.Set(wp); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
	if f.alloc.Used() != 1 {
		t.Errorf("used = %d, want 1", f.alloc.Used())
	}
	if err := f.wps.Remove(wp); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if f.alloc.Used() != 0 || f.wps.Len() != 0 {
		t.Errorf("used=%d len=%d after remove", f.alloc.Used(), f.wps.Len())
	}
	if got := f.core.Aux(arc.APControl(0)); got != arc.APTransactionDisable {
		t.Errorf("AC0 = 0x%x after remove", got)
	}
}

func TestWatchpointManager_EnableAllPendingAndRemoveAll(t *testing.T) {
	f := newFixture(t, 4)
	a := NewWatchpoint(0x10, 4, Read)
	b := NewWatchpoint(0x20, 4, Write)
	f.wps.Add(a)
	f.wps.Add(b)
	f.wps.Unset(a)
	f.wps.Unset(b)

	f.wps.EnableAllPending()
	if !a.Installed() || !b.Installed() {
		t.Fatal("pending watchpoints not enabled")
	}

	if err := f.wps.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if f.wps.Len() != 0 || f.alloc.Used() != 0 {
		t.Errorf("len=%d used=%d after RemoveAll", f.wps.Len(), f.alloc.Used())
	}
}
