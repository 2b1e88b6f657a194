package sim

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dshills/arcdbg/internal/arc"
)

func newHalted(t *testing.T, opts Options) *Core {
	t.Helper()
	c := New(opts)
	if err := c.WriteAuxRegister(arc.AuxDebug, arc.DebugForceHalt); err != nil {
		t.Fatalf("force halt failed: %v", err)
	}
	if !c.Halted() {
		t.Fatal("core not halted after DEBUG.FH")
	}
	return c
}

func release(t *testing.T, c *Core) {
	t.Helper()
	if err := c.WriteAuxRegister(arc.AuxStatus32, 0); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

func TestCore_RunsUntilBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.RunBudget = 4
	c := newHalted(t, opts)

	release(t, c)
	if c.Halted() {
		t.Error("core halted without a cause")
	}
	if len(c.Executed) != 4 || c.PC() != 0x10 {
		t.Errorf("executed %v, pc 0x%x", c.Executed, c.PC())
	}
}

func TestCore_TrapHalts(t *testing.T) {
	for _, length := range []int{2, 4} {
		c := newHalted(t, DefaultOptions())
		trap, _ := arc.TrapBytes(length, c.ByteOrder())
		c.Load(0x8, trap)

		release(t, c)
		if !c.Halted() || c.PC() != 0x8 {
			t.Fatalf("len %d: halted=%v pc=0x%x", length, c.Halted(), c.PC())
		}
		if c.Debug()&arc.DebugBreakpointHalt == 0 {
			t.Errorf("len %d: DEBUG.BH not set: 0x%x", length, c.Debug())
		}
	}
}

func TestCore_InstructionActionPoint(t *testing.T) {
	c := newHalted(t, DefaultOptions())
	c.WriteAuxRegister(arc.APMatchValue(1), 0xC)
	c.WriteAuxRegister(arc.APControl(1), arc.APTargetInstAddr|arc.APTransactionReadWrite)

	release(t, c)
	if !c.Halted() || c.PC() != 0xC {
		t.Fatalf("halted=%v pc=0x%x", c.Halted(), c.PC())
	}
	d := c.Debug()
	if d&arc.DebugActionPointHalt == 0 || (d>>arc.DebugASRShift)&arc.DebugASRMask != 1<<1 {
		t.Errorf("DEBUG = 0x%x, want AH with ASR slot 1", d)
	}
}

func TestCore_MemoryActionPoint(t *testing.T) {
	c := newHalted(t, DefaultOptions())
	c.SetDataAccess(0x4, DataAccess{Addr: 0x100, Write: true})
	c.WriteAuxRegister(arc.APMatchValue(0), 0x100)
	c.WriteAuxRegister(arc.APControl(0), arc.APTargetMemoryAddr|arc.APTransactionRead)

	release(t, c)
	if c.Halted() {
		t.Fatal("read watch fired on a write")
	}

	c = newHalted(t, DefaultOptions())
	c.SetDataAccess(0x4, DataAccess{Addr: 0x100, Write: true})
	c.WriteAuxRegister(arc.APMatchValue(0), 0x100)
	c.WriteAuxRegister(arc.APControl(0), arc.APTargetMemoryAddr|arc.APTransactionWrite)

	release(t, c)
	if !c.Halted() || c.PC() != 0x8 {
		t.Fatalf("halted=%v pc=0x%x, want halt after the store", c.Halted(), c.PC())
	}
}

func TestCore_SingleStep(t *testing.T) {
	c := newHalted(t, DefaultOptions())

	c.WriteAuxRegister(arc.AuxDebug, arc.DebugSingleInstrStep|arc.DebugSingleStep)
	if !c.Halted() || c.PC() != 0x4 || len(c.Executed) != 1 {
		t.Errorf("halted=%v pc=0x%x executed=%v", c.Halted(), c.PC(), c.Executed)
	}
	if c.Debug()&arc.DebugSingleStep != 0 {
		t.Error("DEBUG.SS is sticky")
	}
}

func TestCore_ProtectAndGuard(t *testing.T) {
	c := New(DefaultOptions())
	c.Protect(0x20, 2)

	c.WriteMemory(0x20, []byte{1, 2})
	if got := c.Peek(0x20, 2); !bytes.Equal(got, []byte{0, 0}) {
		t.Errorf("protected write landed: % X", got)
	}

	if err := arc.GuardedWrite(c, 0x20, []byte{1, 2}); err != nil {
		t.Fatalf("GuardedWrite failed: %v", err)
	}
	if got := c.Peek(0x20, 2); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("guarded write = % X", got)
	}
	if c.GuardedWrites != 1 {
		t.Errorf("GuardedWrites = %d", c.GuardedWrites)
	}
}

func TestCore_Faults(t *testing.T) {
	c := New(DefaultOptions())
	c.FailAuxRead(arc.AuxDebug, nil)
	c.FailMemoryWrite(0x40, nil)

	if _, err := c.ReadAuxRegister(arc.AuxDebug); !errors.Is(err, ErrInjected) || !arc.IsTransportError(err) {
		t.Errorf("ReadAuxRegister error = %v", err)
	}
	if err := c.WriteMemory(0x40, []byte{1}); !errors.Is(err, ErrInjected) {
		t.Errorf("WriteMemory error = %v", err)
	}

	c.ClearFaults()
	if _, err := c.ReadAuxRegister(arc.AuxDebug); err != nil {
		t.Errorf("fault survived ClearFaults: %v", err)
	}
}

func TestCore_BusError(t *testing.T) {
	c := New(DefaultOptions())

	if _, err := c.ReadMemory(0xFFFF, 4); !errors.Is(err, ErrBusError) || !arc.IsTransportError(err) {
		t.Errorf("ReadMemory error = %v", err)
	}
	if _, err := c.ReadCoreRegister(arc.NumCoreRegisters); !errors.Is(err, ErrBusError) {
		t.Errorf("ReadCoreRegister error = %v", err)
	}
}

func TestCore_CacheCounters(t *testing.T) {
	c := New(DefaultOptions())
	c.WriteAuxRegister(arc.AuxICIVIC, arc.ICInvalidate)
	c.WriteAuxRegister(arc.AuxDCIVDC, arc.DCInvalidate)
	c.WriteAuxRegister(arc.AuxDCFlush, arc.DCFlush)

	if c.ICacheInvalidations != 1 || c.DCacheInvalidations != 1 || c.DCacheFlushes != 1 {
		t.Errorf("counters ic=%d dc=%d flush=%d", c.ICacheInvalidations, c.DCacheInvalidations, c.DCacheFlushes)
	}
	if len(c.Writes) != 3 {
		t.Errorf("recorded %d writes", len(c.Writes))
	}
}
