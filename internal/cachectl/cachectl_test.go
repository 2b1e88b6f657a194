package cachectl

import (
	"testing"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/arc/sim"
)

func TestController_Invalidate(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.WriteAuxRegister(arc.AuxDCCtrl, arc.DCCtrlInvalidate|0x1)
	core.Writes = nil
	c := New(core, nil)

	if err := c.Invalidate(); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	want := []sim.AuxWrite{
		{Addr: arc.AuxICIVIC, Value: arc.ICInvalidate},
		{Addr: arc.AuxDCCtrl, Value: 0x1},
		{Addr: arc.AuxDCIVDC, Value: arc.DCInvalidate},
		{Addr: arc.AuxDCCtrl, Value: arc.DCCtrlInvalidate | 0x1},
	}
	if len(core.Writes) != len(want) {
		t.Fatalf("writes = %+v", core.Writes)
	}
	for i := range want {
		if core.Writes[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, core.Writes[i], want[i])
		}
	}
}

func TestController_InvalidateStopsOnError(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.FailAuxRead(arc.AuxDCCtrl, nil)
	c := New(core, nil)

	if err := c.Invalidate(); !arc.IsTransportError(err) {
		t.Fatalf("Invalidate error = %v", err)
	}
	if core.DCacheInvalidations != 0 {
		t.Error("D$ invalidated after failed control read")
	}
}

func TestController_FlushOncePerHalt(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	c := New(core, nil)

	for i := 0; i < 3; i++ {
		if err := c.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
	}
	if core.DCacheFlushes != 1 || !c.Flushed() {
		t.Errorf("flushes = %d, flushed = %v", core.DCacheFlushes, c.Flushed())
	}

	c.ResetState()
	if c.Flushed() {
		t.Error("Flushed after ResetState")
	}
	c.Flush()
	if core.DCacheFlushes != 2 {
		t.Errorf("flushes = %d after ResetState", core.DCacheFlushes)
	}
}

func TestController_FlushFailureIsRetried(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	core.FailAuxWrite(arc.AuxDCFlush, nil)
	c := New(core, nil)

	if err := c.Flush(); err == nil {
		t.Fatal("expected flush error")
	}
	if c.Flushed() {
		t.Error("failed flush recorded as done")
	}
	core.ClearFaults()
	if err := c.Flush(); err != nil || core.DCacheFlushes != 1 {
		t.Errorf("retry: err=%v flushes=%d", err, core.DCacheFlushes)
	}
}
