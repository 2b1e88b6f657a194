package runcontrol

import (
	"time"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
	"github.com/dshills/arcdbg/internal/regcache"
)

// DefaultSettleDelay is the wait after forcing a halt or a single step.
const DefaultSettleDelay = time.Millisecond

// Sleeper blocks for at least d.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleepFunc) Sleep(d time.Duration) { f(d) }

// WallClock sleeps with time.Sleep.
var WallClock Sleeper = SleepFunc(time.Sleep)

// CacheTracker resets the cache flush bookkeeping on debug entry.
type CacheTracker interface {
	ResetState()
}

// Handshake is the debug entry/exit protocol of an ARC core.
type Handshake struct {
	regs    arc.Registers
	cache   *regcache.Cache
	caches  CacheTracker
	alloc   *actionpoint.Allocator
	settle  time.Duration
	sleeper Sleeper
	log     *logging.Logger
}

// EnterDebug forces the core to halt and waits for it to settle.
func (h *Handshake) EnterDebug(st *CoreRunState) error {
	if err := h.regs.WriteAuxRegister(arc.AuxDebug, arc.DebugForceHalt); err != nil {
		return err
	}
	h.sleeper.Sleep(h.settle)
	st.State = StateHalted
	h.log.Debug("core stopped")
	return nil
}

// EntryBookkeeping captures the halt for the client: saved PC, full
// context and the halt reason.
func (h *Handshake) EntryBookkeeping(st *CoreRunState) error {
	pc, err := h.regs.ReadAuxRegister(arc.AuxPC)
	if err != nil {
		return err
	}
	st.SavedPC = pc

	if err := h.cache.Save(); err != nil {
		return err
	}
	h.caches.ResetState()

	if st.Reason == ReasonDbgRequest || st.Reason == ReasonSingleStep {
		return nil
	}
	debug, err := h.cache.Get(regcache.Debug)
	if err != nil {
		h.log.Error("Can not read DEBUG AUX register")
		return err
	}
	switch {
	case debug&arc.DebugBreakpointHalt != 0:
		st.Reason = ReasonBreakpoint
	case debug&arc.DebugActionPointHalt != 0:
		st.Reason = h.actionPointReason(debug)
	}
	h.log.Debug("debug entry at 0x%08x, reason %s", pc, st.Reason)
	return nil
}

// actionPointReason maps the triggered action point to a halt reason.
func (h *Handshake) actionPointReason(debug uint32) DebugReason {
	asr := debug >> arc.DebugASRShift & arc.DebugASRMask
	for i := 0; i < h.alloc.Capacity(); i++ {
		if asr&(1<<i) == 0 {
			continue
		}
		if slot, ok := h.alloc.Slot(i); ok && slot.Used && slot.Target == actionpoint.MemoryAddress {
			return ReasonWatchpoint
		}
		return ReasonBreakpoint
	}
	return ReasonBreakpoint
}

// ExitDebug acknowledges the debug session by raising DEBUG.RA.
func (h *Handshake) ExitDebug(st *CoreRunState) error {
	st.State = StateRunning
	value, err := h.regs.ReadAuxRegister(arc.AuxDebug)
	if err != nil {
		return err
	}
	return h.regs.WriteAuxRegister(arc.AuxDebug, value|arc.DebugResetApplied)
}

// EnableInterrupts enables or masks every interrupt line.
func (h *Handshake) EnableInterrupts(enable bool) error {
	value := arc.InterruptsDisabled
	if enable {
		value = arc.InterruptsEnabled
	}
	return h.regs.WriteAuxRegister(arc.AuxIEnable, value)
}

// ConfigStep arms or disarms single instruction stepping. Arming clears
// STATUS32.AE first and performs the step.
func (h *Handshake) ConfigStep(enable bool) error {
	if enable {
		status, err := h.regs.ReadAuxRegister(arc.AuxStatus32)
		if err != nil {
			return err
		}
		if err := h.regs.WriteAuxRegister(arc.AuxStatus32, status&^arc.Status32ActionPointHit); err != nil {
			return err
		}
		return h.regs.WriteAuxRegister(arc.AuxDebug, arc.DebugSingleInstrStep|arc.DebugSingleStep)
	}
	debug, err := h.regs.ReadAuxRegister(arc.AuxDebug)
	if err != nil {
		return err
	}
	return h.regs.WriteAuxRegister(arc.AuxDebug, debug&^arc.DebugSingleInstrStep)
}

// StartCore releases the core by clearing STATUS32.H.
func (h *Handshake) StartCore() error {
	status, err := h.regs.ReadAuxRegister(arc.AuxStatus32)
	if err != nil {
		return err
	}
	return h.regs.WriteAuxRegister(arc.AuxStatus32, status&^arc.Status32Halt)
}

// Halted reads STATUS32.H from the core.
func (h *Handshake) Halted() (bool, error) {
	status, err := h.regs.ReadAuxRegister(arc.AuxStatus32)
	if err != nil {
		return false, err
	}
	return status&arc.Status32Halt != 0, nil
}
