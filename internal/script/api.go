package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/breakpoint"
)

func (r *Runner) targetTable() *lua.LTable {
	return r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"halt":                   r.halt,
		"resume":                 r.resume,
		"step":                   r.step,
		"add_breakpoint":         r.addBreakpoint,
		"remove_breakpoint":      r.removeBreakpoint,
		"add_watchpoint":         r.addWatchpoint,
		"remove_watchpoint":      r.removeWatchpoint,
		"add_aux_actionpoint":    r.addAuxActionPoint,
		"remove_aux_actionpoint": r.removeAuxActionPoint,
		"reset_all":              r.resetAll,
		"poll":                   r.poll,
		"state":                  r.state,
		"reason":                 r.reason,
		"pc":                     r.pc,
		"read_memory":            r.readMemory,
		"alloc_work_area":        r.allocWorkArea,
		"free_work_area":         r.freeWorkArea,
	})
}

// check raises err as a Lua error.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

// runOptions reads the optional option table of resume and step.
type runOptions struct {
	current           bool
	address           uint32
	handleBreakpoints bool
	debug             bool
}

func parseRunOptions(L *lua.LState) runOptions {
	opts := runOptions{current: true, handleBreakpoints: true}
	tbl := L.OptTable(1, nil)
	if tbl == nil {
		return opts
	}
	if v, ok := tbl.RawGetString("address").(lua.LNumber); ok {
		opts.address = uint32(v)
		opts.current = false
	}
	if v, ok := tbl.RawGetString("current").(lua.LBool); ok {
		opts.current = bool(v)
	}
	if v, ok := tbl.RawGetString("handle_breakpoints").(lua.LBool); ok {
		opts.handleBreakpoints = bool(v)
	}
	if v, ok := tbl.RawGetString("debug").(lua.LBool); ok {
		opts.debug = bool(v)
	}
	return opts
}

func (r *Runner) halt(L *lua.LState) int {
	check(L, r.target.Halt())
	return 0
}

func (r *Runner) resume(L *lua.LState) int {
	o := parseRunOptions(L)
	err := r.target.Resume(o.current, o.address, o.handleBreakpoints, o.debug)
	for addr, area := range r.workAreas {
		if area.Freed() {
			delete(r.workAreas, addr)
		}
	}
	check(L, err)
	return 0
}

func (r *Runner) step(L *lua.LState) int {
	o := parseRunOptions(L)
	check(L, r.target.Step(o.current, o.address, o.handleBreakpoints))
	return 0
}

func (r *Runner) addBreakpoint(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	length := L.OptInt(2, 4)
	kind, err := breakpoint.ParseKind(L.OptString(3, "hw"))
	check(L, err)

	bp := r.findBreakpoint(addr, length, kind)
	if bp == nil {
		bp = breakpoint.New(addr, length, kind)
	}
	err = r.target.AddBreakpoint(bp)
	if arc.IsTransportError(err) {
		// The target keeps the entry pending; the id stays usable for retry and removal.
		r.breakpoints[bp.ID] = bp
		L.RaiseError("breakpoint %d staged: %s", bp.ID, err.Error())
	}
	check(L, err)
	r.breakpoints[bp.ID] = bp
	L.Push(lua.LNumber(bp.ID))
	return 1
}

// findBreakpoint returns a breakpoint this runner already added with the
// same parameters, so repeating an add call reuses it.
func (r *Runner) findBreakpoint(addr uint32, length int, kind breakpoint.Kind) *breakpoint.Breakpoint {
	for _, bp := range r.breakpoints {
		if bp.Address == addr && bp.Length == length && bp.Kind == kind {
			return bp
		}
	}
	return nil
}

func (r *Runner) removeBreakpoint(L *lua.LState) int {
	id := uint32(L.CheckNumber(1))
	bp, ok := r.breakpoints[id]
	if !ok {
		L.RaiseError("unknown breakpoint id %d", id)
		return 0
	}
	check(L, r.target.RemoveBreakpoint(bp))
	delete(r.breakpoints, id)
	return 0
}

func (r *Runner) addWatchpoint(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	length := L.OptInt(2, 4)
	mode, err := breakpoint.ParseMode(L.OptString(3, "access"))
	check(L, err)

	wp := r.findWatchpoint(addr, length, mode)
	if wp == nil {
		wp = breakpoint.NewWatchpoint(addr, length, mode)
	}
	err = r.target.AddWatchpoint(wp)
	if arc.IsTransportError(err) {
		r.watchpoints[wp.ID] = wp
		L.RaiseError("watchpoint %d staged: %s", wp.ID, err.Error())
	}
	check(L, err)
	r.watchpoints[wp.ID] = wp
	L.Push(lua.LNumber(wp.ID))
	return 1
}

func (r *Runner) findWatchpoint(addr uint32, length int, mode breakpoint.Mode) *breakpoint.Watchpoint {
	for _, wp := range r.watchpoints {
		if wp.Address == addr && wp.Length == length && wp.Mode == mode {
			return wp
		}
	}
	return nil
}

func (r *Runner) removeWatchpoint(L *lua.LState) int {
	id := uint32(L.CheckNumber(1))
	wp, ok := r.watchpoints[id]
	if !ok {
		L.RaiseError("unknown watchpoint id %d", id)
		return 0
	}
	check(L, r.target.RemoveWatchpoint(wp))
	delete(r.watchpoints, id)
	return 0
}

func (r *Runner) addAuxActionPoint(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	tt, err := actionpoint.ParseTransactionKind(L.OptString(2, "readwrite"))
	check(L, err)
	check(L, r.target.AddAuxActionPoint(addr, tt))
	return 0
}

func (r *Runner) removeAuxActionPoint(L *lua.LState) int {
	check(L, r.target.RemoveAuxActionPoint(uint32(L.CheckNumber(1))))
	return 0
}

func (r *Runner) resetAll(L *lua.LState) int {
	r.target.ResetAllBreakpointsAndWatchpoints()
	r.breakpoints = make(map[uint32]*breakpoint.Breakpoint)
	r.watchpoints = make(map[uint32]*breakpoint.Watchpoint)
	return 0
}

func (r *Runner) allocWorkArea(L *lua.LState) int {
	size := uint32(L.CheckNumber(1))
	area, err := r.target.AllocWorkArea(size, L.OptBool(2, false))
	check(L, err)
	r.workAreas[area.Address] = area
	L.Push(lua.LNumber(area.Address))
	return 1
}

func (r *Runner) freeWorkArea(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	area, ok := r.workAreas[addr]
	if !ok {
		L.RaiseError("no working area at 0x%08x", addr)
		return 0
	}
	check(L, r.target.FreeWorkArea(area))
	delete(r.workAreas, addr)
	return 0
}

func (r *Runner) poll(L *lua.LState) int {
	check(L, r.target.Poll())
	return 0
}

func (r *Runner) state(L *lua.LState) int {
	L.Push(lua.LString(r.target.State().String()))
	return 1
}

func (r *Runner) reason(L *lua.LState) int {
	L.Push(lua.LString(r.target.DebugReason().String()))
	return 1
}

func (r *Runner) pc(L *lua.LState) int {
	L.Push(lua.LNumber(r.target.SavedPC()))
	return 1
}

func (r *Runner) readMemory(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	length := L.CheckInt(2)
	data, err := r.target.ReadMemory(addr, length)
	check(L, err)

	tbl := L.CreateTable(len(data), 0)
	for _, b := range data {
		tbl.Append(lua.LNumber(b))
	}
	L.Push(tbl)
	return 1
}
