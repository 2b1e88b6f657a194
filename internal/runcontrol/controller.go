package runcontrol

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/breakpoint"
	"github.com/dshills/arcdbg/internal/cachectl"
	"github.com/dshills/arcdbg/internal/event"
	"github.com/dshills/arcdbg/internal/logging"
	"github.com/dshills/arcdbg/internal/regcache"
	"github.com/dshills/arcdbg/internal/workarea"
)

// ResetSignals is the system reset line and its strap configuration.
type ResetSignals interface {
	AssertSRST(asserted bool)
	SRSTAsserted() bool
	SRSTPullsTRST() bool
}

// Options configures a Controller.
type Options struct {
	// Transport reaches the core's registers and memory. Required.
	Transport arc.Transport

	// ByteOrder of target memory. Defaults to little-endian.
	ByteOrder binary.ByteOrder

	// ActionPoints is the comparator count of the core. Defaults to
	// arc.MaxActionPoints.
	ActionPoints int

	// WorkAreas are released on every real resume. Optional.
	WorkAreas *workarea.Pool

	// Reset drives the system reset line. Optional.
	Reset ResetSignals

	// Events receives state change notifications. Optional.
	Events event.Publisher

	// SettleDelay is the wait after a forced halt or single step.
	// Defaults to DefaultSettleDelay.
	SettleDelay time.Duration

	// Sleeper implements the settle wait. Defaults to WallClock.
	Sleeper Sleeper

	// Logger for all run-control components. Nil discards.
	Logger *logging.Logger

	// InitialState is the state assumed before the first poll.
	// Defaults to StateRunning.
	InitialState ExecutionState
}

// Controller is the run-control state machine of one core.
type Controller struct {
	regs      arc.Transport
	cache     *regcache.Cache
	caches    *cachectl.Controller
	alloc     *actionpoint.Allocator
	bps       *breakpoint.Manager
	wps       *breakpoint.WatchpointManager
	aux       *actionpoint.AuxPoints
	hs        *Handshake
	workAreas *workarea.Pool
	reset     ResetSignals
	events    event.Publisher
	settle    time.Duration
	sleeper   Sleeper
	log       *logging.Logger

	st CoreRunState

	// haltInReset records a halt requested while the core was in reset.
	haltInReset bool
}

// New creates a controller and its managers.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Nop
	}
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	if opts.ActionPoints <= 0 {
		opts.ActionPoints = arc.MaxActionPoints
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Sleeper == nil {
		opts.Sleeper = WallClock
	}
	if opts.InitialState == StateUnknown {
		opts.InitialState = StateRunning
	}

	cache := regcache.New(opts.Transport, regcache.DefaultDefs())
	caches := cachectl.New(opts.Transport, log)
	alloc := actionpoint.NewAllocator(opts.Transport, opts.ActionPoints, log)

	c := &Controller{
		regs:      opts.Transport,
		cache:     cache,
		caches:    caches,
		alloc:     alloc,
		bps:       breakpoint.NewManager(opts.Transport, opts.ByteOrder, alloc, caches, log),
		wps:       breakpoint.NewWatchpointManager(alloc, log),
		aux:       actionpoint.NewAuxPoints(alloc, log),
		workAreas: opts.WorkAreas,
		reset:     opts.Reset,
		events:    opts.Events,
		settle:    opts.SettleDelay,
		sleeper:   opts.Sleeper,
		log:       log.WithComponent("runcontrol"),
		st:        CoreRunState{State: opts.InitialState},
	}
	c.hs = &Handshake{
		regs:    opts.Transport,
		cache:   cache,
		caches:  caches,
		alloc:   alloc,
		settle:  opts.SettleDelay,
		sleeper: opts.Sleeper,
		log:     log.WithComponent("handshake"),
	}
	return c
}

// State returns the execution state.
func (c *Controller) State() ExecutionState { return c.st.State }

// DebugReason returns the reason of the last halt.
func (c *Controller) DebugReason() DebugReason { return c.st.Reason }

// SavedPC returns the program counter captured on the last debug entry.
func (c *Controller) SavedPC() uint32 { return c.st.SavedPC }

// RunState returns a copy of the run state.
func (c *Controller) RunState() CoreRunState { return c.st }

// Breakpoints returns the breakpoint manager.
func (c *Controller) Breakpoints() *breakpoint.Manager { return c.bps }

// Watchpoints returns the watchpoint manager.
func (c *Controller) Watchpoints() *breakpoint.WatchpointManager { return c.wps }

// Allocator returns the shared action point allocator.
func (c *Controller) Allocator() *actionpoint.Allocator { return c.alloc }

// Registers returns the register cache.
func (c *Controller) Registers() *regcache.Cache { return c.cache }

// Handshake returns the debug entry/exit protocol.
func (c *Controller) Handshake() *Handshake { return c.hs }

func (c *Controller) requireHalted() error {
	if c.st.State != StateHalted {
		c.log.Warn("target not halted")
		return arc.ErrNotHalted
	}
	return nil
}

// Halt stops the core.
func (c *Controller) Halt() error {
	c.log.Debug("halt requested in state %s", c.st.State)

	switch c.st.State {
	case StateHalted:
		c.log.Debug("target was already halted")
		return nil
	case StateUnknown:
		c.log.Warn("target was in unknown state when halt was requested")
	case StateReset:
		if c.reset != nil && c.reset.SRSTPullsTRST() && c.reset.SRSTAsserted() {
			c.log.Error("can't request a halt while in reset if nSRST pulls nTRST")
			return arc.ErrResetConstrained
		}
		// The halt is completed by DeassertReset.
		c.st.Reason = ReasonDbgRequest
		c.haltInReset = true
		return nil
	}

	c.st.Reason = ReasonDbgRequest
	if err := c.hs.EnterDebug(&c.st); err != nil {
		return err
	}
	if err := c.hs.EntryBookkeeping(&c.st); err != nil {
		return err
	}
	c.st.State = StateHalted
	c.emit(TopicHalted)
	return nil
}

// Resume releases the core. With current unset execution continues at
// address. With handleBreakpoints a breakpoint at the resume address is
// stepped over first. A debug execution keeps interrupts masked and leaves
// pending breakpoints alone.
func (c *Controller) Resume(current bool, address uint32, handleBreakpoints, debugExecution bool) error {
	c.log.Debug("resume current=%v address=0x%08x handle_breakpoints=%v debug_execution=%v",
		current, address, handleBreakpoints, debugExecution)

	if err := c.requireHalted(); err != nil {
		return err
	}

	if !debugExecution {
		if c.workAreas != nil {
			c.workAreas.FreeAll()
		}
		c.bps.EnableAllPending()
		c.wps.EnableAllPending()
	}

	if !current {
		c.cache.Set(regcache.PC, address)
		c.log.Debug("Changing the value of current PC to 0x%08x", address)
	}
	resumePC := address
	if current {
		pc, err := c.cache.Get(regcache.PC)
		if err != nil {
			return err
		}
		resumePC = pc
	}

	if err := c.cache.Restore(); err != nil {
		return err
	}

	if pc := c.cache.Entry(regcache.PC); pc.Valid && pc.Value == resumePC {
		if err := c.regs.WriteAuxRegister(arc.AuxPC, pc.Value); err != nil {
			return err
		}
	}

	if handleBreakpoints {
		if err := c.stepOverBreakpoint(resumePC); err != nil {
			return err
		}
	}

	if err := c.hs.EnableInterrupts(!debugExecution); err != nil {
		return err
	}
	if err := c.hs.ExitDebug(&c.st); err != nil {
		return err
	}
	c.st.Reason = ReasonNone

	if err := c.hs.StartCore(); err != nil {
		return err
	}
	c.cache.InvalidateAll()

	if debugExecution {
		c.st.State = StateDebugRunning
		c.emit(TopicDebugResumed)
		c.log.Debug("target debug resumed at 0x%08x", resumePC)
	} else {
		c.st.State = StateRunning
		c.emit(TopicResumed)
		c.log.Debug("target resumed at 0x%08x", resumePC)
	}
	return nil
}

// stepOverBreakpoint executes the instruction under an installed breakpoint
// at pc and reinstalls the breakpoint.
func (c *Controller) stepOverBreakpoint(pc uint32) error {
	bp, ok := c.bps.Find(pc)
	if !ok || !bp.Installed() {
		return nil
	}
	c.log.Debug("unset breakpoint at 0x%08x", bp.Address)
	if err := c.bps.Unset(bp); err != nil {
		return err
	}
	if err := c.singleStepForBypass(); err != nil {
		return err
	}
	if err := c.bps.Set(bp); err != nil {
		return err
	}
	return c.hs.ConfigStep(false)
}

// singleStepForBypass steps one instruction without touching breakpoint
// tables or emitting events.
func (c *Controller) singleStepForBypass() error {
	if err := c.hs.EntryBookkeeping(&c.st); err != nil {
		return err
	}
	if err := c.hs.EnableInterrupts(false); err != nil {
		return err
	}
	if err := c.hs.ConfigStep(true); err != nil {
		return err
	}
	return c.hs.ExitDebug(&c.st)
}

// Step executes a single instruction. With current unset the step starts
// at address. With handleBreakpoints a breakpoint at the step address is
// lifted for the step and reinstalled afterwards.
func (c *Controller) Step(current bool, address uint32, handleBreakpoints bool) error {
	if err := c.requireHalted(); err != nil {
		return err
	}

	if !current {
		c.cache.Set(regcache.PC, address)
	}
	pc, err := c.cache.Get(regcache.PC)
	if err != nil {
		return err
	}
	c.log.Debug("Target steps one instruction from PC=0x%08x", pc)

	var lifted *breakpoint.Breakpoint
	if handleBreakpoints {
		if bp, ok := c.bps.Find(pc); ok && bp.Installed() {
			if err := c.bps.Unset(bp); err != nil {
				return err
			}
			lifted = bp
		}
	}

	if err := c.cache.Restore(); err != nil {
		return err
	}
	c.st.Reason = ReasonSingleStep
	c.emitState(TopicResumed, StateRunning)

	if err := c.hs.EnableInterrupts(false); err != nil {
		return err
	}
	if err := c.hs.EnterDebug(&c.st); err != nil {
		return err
	}
	if err := c.hs.ConfigStep(true); err != nil {
		return err
	}
	c.sleeper.Sleep(c.settle)
	c.cache.InvalidateAll()

	if lifted != nil {
		if err := c.bps.Set(lifted); err != nil {
			return err
		}
	}

	// Halted before bookkeeping so a client polling on the event sees the
	// halt.
	c.st.State = StateHalted
	if err := c.hs.EntryBookkeeping(&c.st); err != nil {
		return err
	}
	c.emit(TopicHalted)
	c.log.Debug("target stepped")
	return nil
}

// Poll checks whether a running core has halted on its own and performs the
// debug entry if so.
func (c *Controller) Poll() error {
	if c.st.State != StateRunning && c.st.State != StateDebugRunning {
		return nil
	}
	halted, err := c.hs.Halted()
	if err != nil || !halted {
		return err
	}

	wasDebug := c.st.State == StateDebugRunning
	c.st.State = StateHalted
	if err := c.hs.EntryBookkeeping(&c.st); err != nil {
		return err
	}
	if wasDebug {
		c.emit(TopicDebugHalted)
	} else {
		c.emit(TopicHalted)
	}
	return nil
}

// FlushCaches writes back the data cache once per halt.
func (c *Controller) FlushCaches() error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.caches.Flush()
}

// AssertReset drives the system reset and moves the core to the reset state.
func (c *Controller) AssertReset() {
	if c.reset != nil {
		c.reset.AssertSRST(true)
	}
	c.st.State = StateReset
	c.haltInReset = false
	c.cache.InvalidateAll()
}

// DeassertReset releases the system reset. A halt requested while in reset
// is performed now.
func (c *Controller) DeassertReset() error {
	if c.reset != nil {
		c.reset.AssertSRST(false)
	}
	if c.st.State != StateReset {
		return nil
	}
	if !c.haltInReset {
		c.st.State = StateRunning
		return nil
	}
	c.haltInReset = false
	c.st.Reason = ReasonDbgRequest
	if err := c.hs.EnterDebug(&c.st); err != nil {
		return err
	}
	if err := c.hs.EntryBookkeeping(&c.st); err != nil {
		return err
	}
	c.emit(TopicHalted)
	return nil
}

// AddBreakpoint registers and installs bp.
func (c *Controller) AddBreakpoint(bp *breakpoint.Breakpoint) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.bps.Add(bp)
}

// RemoveBreakpoint uninstalls and drops bp.
func (c *Controller) RemoveBreakpoint(bp *breakpoint.Breakpoint) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.bps.Remove(bp)
}

// AllocWorkArea reserves size bytes of target RAM for debugger code. The
// area is released on the next real resume if not freed earlier.
func (c *Controller) AllocWorkArea(size uint32, backup bool) (*workarea.Area, error) {
	if err := c.requireHalted(); err != nil {
		return nil, err
	}
	if c.workAreas == nil {
		return nil, fmt.Errorf("%w: no working area configured", workarea.ErrNoSpace)
	}
	return c.workAreas.Alloc(size, backup)
}

// FreeWorkArea releases area, restoring its backup.
func (c *Controller) FreeWorkArea(area *workarea.Area) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	if c.workAreas == nil {
		return nil
	}
	return c.workAreas.Free(area)
}

// AddContextBreakpoint is not supported by the core. The request is logged
// and ignored; bp is not registered.
func (c *Controller) AddContextBreakpoint(bp *breakpoint.Breakpoint) error {
	c.log.Error("context breakpoints not yet supported")
	return nil
}

// AddHybridBreakpoint is not supported by the core. The request is logged
// and ignored; bp is not registered.
func (c *Controller) AddHybridBreakpoint(bp *breakpoint.Breakpoint) error {
	c.log.Error("hybrid breakpoints not yet supported")
	return nil
}

// AddWatchpoint registers and installs wp.
func (c *Controller) AddWatchpoint(wp *breakpoint.Watchpoint) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.wps.Add(wp)
}

// RemoveWatchpoint uninstalls and drops wp.
func (c *Controller) RemoveWatchpoint(wp *breakpoint.Watchpoint) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.wps.Remove(wp)
}

// AddAuxActionPoint watches aux register addr.
func (c *Controller) AddAuxActionPoint(addr uint32, tt actionpoint.TransactionKind) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	_, err := c.aux.Add(addr, tt)
	return err
}

// RemoveAuxActionPoint stops watching aux register addr.
func (c *Controller) RemoveAuxActionPoint(addr uint32) error {
	if err := c.requireHalted(); err != nil {
		return err
	}
	return c.aux.Remove(addr)
}

// ResetAllBreakpointsAndWatchpoints tears down every breakpoint, watchpoint
// and aux action point in any state. Failures are logged and skipped; the
// action point pool always ends up empty.
func (c *Controller) ResetAllBreakpointsAndWatchpoints() {
	if err := c.bps.RemoveAll(); err != nil {
		c.log.Warn("breakpoint teardown: %v", err)
	}
	if err := c.wps.RemoveAll(); err != nil {
		c.log.Warn("watchpoint teardown: %v", err)
	}
	for _, addr := range c.aux.Registered() {
		if err := c.aux.Remove(addr); err != nil {
			c.log.Warn("aux action point 0x%x teardown: %v", addr, err)
		}
	}
	if err := c.alloc.Reset(); err != nil {
		c.log.Warn("action point reset: %v", err)
	}
}

// ReadMemory reads target memory while the core is halted.
func (c *Controller) ReadMemory(addr uint32, length int) ([]byte, error) {
	if err := c.requireHalted(); err != nil {
		return nil, err
	}
	return c.regs.ReadMemory(addr, length)
}
