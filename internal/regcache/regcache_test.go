package regcache

import (
	"errors"
	"testing"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/arc/sim"
)

func TestCache_GetReadsOnce(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.SetPC(0x40)
	c := New(core, DefaultDefs())

	v, err := c.Get(PC)
	if err != nil || v != 0x40 {
		t.Fatalf("Get(PC) = 0x%x, %v", v, err)
	}
	core.SetPC(0x80)
	if v, _ := c.Get(PC); v != 0x40 {
		t.Errorf("cached Get(PC) = 0x%x, want 0x40", v)
	}

	c.InvalidateAll()
	if v, _ := c.Get(PC); v != 0x80 {
		t.Errorf("Get(PC) after InvalidateAll = 0x%x, want 0x80", v)
	}
}

func TestCache_SetRestore(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	c := New(core, DefaultDefs())

	c.Set(PC, 0x100)
	c.Set(3, 0xDEAD)
	if e := c.Entry(PC); !e.Dirty || !e.Valid || e.Value != 0x100 {
		t.Errorf("entry after Set = %+v", e)
	}
	if core.PC() != 0 {
		t.Error("Set wrote through")
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if core.PC() != 0x100 {
		t.Errorf("pc = 0x%x after Restore", core.PC())
	}
	if r3, _ := core.ReadCoreRegister(3); r3 != 0xDEAD {
		t.Errorf("r3 = 0x%x after Restore", r3)
	}
	if c.Entry(PC).Dirty {
		t.Error("entry still dirty after Restore")
	}
}

func TestCache_SaveKeepsDirty(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.WriteCoreRegister(5, 7)
	c := New(core, DefaultDefs())
	c.Set(PC, 0x200)

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if v, _ := c.Get(PC); v != 0x200 {
		t.Errorf("Save overwrote dirty pc: 0x%x", v)
	}
	if !c.Entry(5).Valid || c.Entry(5).Value != 7 {
		t.Errorf("r5 entry = %+v", c.Entry(5))
	}
}

func TestCache_ErrorsPropagate(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.FailAuxRead(arc.AuxStatus32, nil)
	core.FailAuxWrite(arc.AuxPC, nil)
	c := New(core, DefaultDefs())

	if _, err := c.Get(Status32); !arc.IsTransportError(err) {
		t.Errorf("Get error = %v", err)
	}
	if c.Entry(Status32).Valid {
		t.Error("failed read marked entry valid")
	}
	if err := c.Save(); !errors.Is(err, sim.ErrInjected) {
		t.Errorf("Save error = %v", err)
	}

	c.Set(PC, 4)
	if err := c.Restore(); !arc.IsTransportError(err) {
		t.Errorf("Restore error = %v", err)
	}
	if !c.Entry(PC).Dirty {
		t.Error("failed restore cleared dirty flag")
	}
}

func TestCache_Lookup(t *testing.T) {
	c := New(sim.New(sim.DefaultOptions()), DefaultDefs())

	tests := []struct {
		name string
		want ID
	}{
		{"r0", 0},
		{"sp", ID(arc.CoreSP)},
		{"blink", ID(arc.CoreBlink)},
		{"pc", PC},
		{"status32", Status32},
		{"debug", Debug},
	}
	for _, tt := range tests {
		if id, ok := c.Lookup(tt.name); !ok || id != tt.want {
			t.Errorf("Lookup(%q) = %d, %v, want %d", tt.name, id, ok, tt.want)
		}
	}
	if _, ok := c.Lookup("r99"); ok {
		t.Error("Lookup(r99) succeeded")
	}
	if c.Len() != arc.NumCoreRegisters+3 {
		t.Errorf("Len = %d", c.Len())
	}
}
