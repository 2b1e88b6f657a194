package script

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/arc/sim"
	"github.com/dshills/arcdbg/internal/runcontrol"
	"github.com/dshills/arcdbg/internal/workarea"
)

func newRunner(t *testing.T) (*Runner, *runcontrol.Controller, *sim.Core, *bytes.Buffer) {
	t.Helper()
	core := sim.New(sim.DefaultOptions())
	ctl := runcontrol.New(runcontrol.Options{
		Transport: core,
		Sleeper:   runcontrol.SleepFunc(func(time.Duration) {}),
	})
	var out bytes.Buffer
	r := New(ctl, WithOutput(&out))
	t.Cleanup(r.Close)
	return r, ctl, core, &out
}

func TestRunner_BreakpointSession(t *testing.T) {
	r, ctl, _, out := newRunner(t)

	err := r.DoString(`
		target.halt()
		assert(target.state() == "halted")
		local id = target.add_breakpoint(0x8, 4, "hw")
		target.resume()
		assert(target.state() == "running")
		target.poll()
		print(target.state(), target.reason(), target.pc())
		target.remove_breakpoint(id)
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "halted\tbreakpoint\t8" {
		t.Errorf("output = %q", got)
	}
	if ctl.Breakpoints().Len() != 0 {
		t.Errorf("breakpoints left: %d", ctl.Breakpoints().Len())
	}
}

func TestRunner_StepAndReadMemory(t *testing.T) {
	r, ctl, core, out := newRunner(t)
	if err := core.Load(0x20, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	err := r.DoString(`
		target.halt()
		target.step{address = 0x10}
		local mem = target.read_memory(0x20, 2)
		print(target.reason(), #mem, mem[1], mem[2])
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "single-step\t2\t170\t187" {
		t.Errorf("output = %q", got)
	}
	if ctl.SavedPC() != 0x14 {
		t.Errorf("saved pc = 0x%x, want 0x14", ctl.SavedPC())
	}
}

func TestRunner_WatchpointAndAuxActionPoints(t *testing.T) {
	r, ctl, _, _ := newRunner(t)

	err := r.DoString(`
		target.halt()
		local w = target.add_watchpoint(0x100, 4, "write")
		target.add_aux_actionpoint(0x40C, "read")
		target.remove_watchpoint(w)
		target.remove_aux_actionpoint(0x40C)
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if n := ctl.Allocator().Used(); n != 0 {
		t.Errorf("slots still used: %d", n)
	}
}

func TestRunner_ResetAll(t *testing.T) {
	r, ctl, _, _ := newRunner(t)

	err := r.DoString(`
		target.halt()
		target.add_breakpoint(0x10, 4, "hw")
		target.add_breakpoint(0x20, 2, "sw")
		target.add_watchpoint(0x100, 4, "access")
		target.reset_all()
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if ctl.Breakpoints().Len() != 0 || ctl.Watchpoints().Len() != 0 {
		t.Errorf("points left: bp=%d wp=%d", ctl.Breakpoints().Len(), ctl.Watchpoints().Len())
	}
	if err := r.DoString(`target.remove_breakpoint(1)`); err == nil {
		t.Error("expected error for forgotten breakpoint id")
	}
}

func TestRunner_AddRetryAfterTransportFailure(t *testing.T) {
	r, ctl, core, out := newRunner(t)
	core.FailAuxWrite(arc.APControl(0), nil)

	err := r.DoString(`target.halt() target.add_breakpoint(0x10, 4, "hw")`)
	if err == nil || !strings.Contains(err.Error(), "staged") {
		t.Fatalf("expected staged error, got %v", err)
	}
	if ctl.Breakpoints().Len() != 1 {
		t.Fatalf("breakpoints = %d, want the staged entry", ctl.Breakpoints().Len())
	}

	core.ClearFaults()
	err = r.DoString(`
		local id = target.add_breakpoint(0x10, 4, "hw")
		target.remove_breakpoint(id)
		target.resume()
		target.poll()
		print(target.state())
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if ctl.Breakpoints().Len() != 0 {
		t.Errorf("breakpoints left: %d", ctl.Breakpoints().Len())
	}
	if got := strings.TrimSpace(out.String()); got != "running" {
		t.Errorf("state after resume = %q, a leftover breakpoint fired", got)
	}
}

func TestRunner_WatchpointRetryAfterTransportFailure(t *testing.T) {
	r, ctl, core, _ := newRunner(t)
	core.FailAuxWrite(arc.APControl(0), nil)

	err := r.DoString(`target.halt() target.add_watchpoint(0x100, 4, "write")`)
	if err == nil || !strings.Contains(err.Error(), "staged") {
		t.Fatalf("expected staged error, got %v", err)
	}

	core.ClearFaults()
	err = r.DoString(`
		local id = target.add_watchpoint(0x100, 4, "write")
		target.remove_watchpoint(id)
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if ctl.Watchpoints().Len() != 0 || ctl.Allocator().Used() != 0 {
		t.Errorf("watchpoints=%d used slots=%d", ctl.Watchpoints().Len(), ctl.Allocator().Used())
	}
}

func TestRunner_ErrorsRaise(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"not halted", `target.step()`, "not halted"},
		{"bad kind", `target.halt() target.add_breakpoint(0, 4, "magic")`, "magic"},
		{"bad mode", `target.halt() target.add_watchpoint(0, 4, "exec")`, "exec"},
		{"unknown watchpoint", `target.remove_watchpoint(99)`, "unknown watchpoint"},
		{"syntax", `target.halt(`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _, _ := newRunner(t)
			err := r.DoString(tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestRunner_SafeLibrariesOnly(t *testing.T) {
	r, _, _, out := newRunner(t)

	if err := r.DoString(`print(type(os), type(io), type(string.format))`); err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "nil\tnil\tfunction" {
		t.Errorf("output = %q", got)
	}
}

func TestRunner_DoFile(t *testing.T) {
	r, ctl, _, _ := newRunner(t)

	path := filepath.Join(t.TempDir(), "session.lua")
	if err := os.WriteFile(path, []byte("target.halt()\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.DoFile(path); err != nil {
		t.Fatalf("DoFile failed: %v", err)
	}
	if ctl.State() != runcontrol.StateHalted {
		t.Errorf("state = %s", ctl.State())
	}
	if err := r.DoFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunner_WorkAreasReleasedOnResume(t *testing.T) {
	core := sim.New(sim.DefaultOptions())
	pool := workarea.NewPool(0xC000, 0x100, core, nil)
	ctl := runcontrol.New(runcontrol.Options{
		Transport: core,
		WorkAreas: pool,
		Sleeper:   runcontrol.SleepFunc(func(time.Duration) {}),
	})
	var out bytes.Buffer
	r := New(ctl, WithOutput(&out))
	defer r.Close()
	core.Load(0xC000, []byte{0xAA, 0xBB, 0xCC, 0xDD})

	err := r.DoString(`
		target.halt()
		local a = target.alloc_work_area(16, true)
		local b = target.alloc_work_area(8)
		target.free_work_area(b)
		print(string.format("%x", a))
		target.resume{debug = true}
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if pool.InUse() != 1 {
		t.Fatalf("areas in use after debug resume = %d, want 1", pool.InUse())
	}
	if got := strings.TrimSpace(out.String()); got != "c000" {
		t.Errorf("first area at %q, want c000", got)
	}

	core.Load(0xC000, []byte{0, 0, 0, 0})
	if err := r.DoString(`target.halt() target.resume()`); err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if pool.InUse() != 0 {
		t.Errorf("areas in use after resume = %d", pool.InUse())
	}
	if got := core.Peek(0xC000, 4); !bytes.Equal(got, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("backup not restored: % X", got)
	}
	if err := r.DoString(`target.halt() target.free_work_area(0xC000)`); err == nil {
		t.Error("expected error freeing an area released by resume")
	}
}
