package sim

import (
	"github.com/dshills/arcdbg/internal/arc"
)

// step executes one instruction on behalf of DEBUG.SS.
func (c *Core) step() {
	c.clearHaltCause()
	c.execute()
}

// run executes instructions until the core halts or the budget runs out.
func (c *Core) run() {
	c.clearHaltCause()
	for i := 0; i < c.opts.RunBudget; i++ {
		if c.execute() {
			return
		}
	}
}

func (c *Core) clearHaltCause() {
	c.debug &^= debugStatusMask
}

// execute retires the instruction at PC. It returns true when the core
// halted instead.
func (c *Core) execute() bool {
	pc := c.pc
	if slot, ok := c.matchActionPoint(arc.APTargetInstAddr, pc, arc.APTransactionRead); ok {
		c.haltOnActionPoint(slot)
		return true
	}
	if c.isTrap(pc) {
		c.halt(arc.DebugBreakpointHalt)
		return true
	}

	c.Executed = append(c.Executed, pc)
	c.pc = pc + InstructionSize

	if access, ok := c.accesses[pc]; ok {
		tt := arc.APTransactionRead
		if access.Write {
			tt = arc.APTransactionWrite
		}
		if slot, ok := c.matchActionPoint(arc.APTargetMemoryAddr, access.Addr, tt); ok {
			c.haltOnActionPoint(slot)
			return true
		}
	}
	return false
}

func (c *Core) isTrap(pc uint32) bool {
	half, err := c.offset(pc, 2)
	if err != nil {
		return false
	}
	if c.order.Uint16(c.mem[half:]) == arc.TrapOpcode16 {
		return true
	}
	word, err := c.offset(pc, 4)
	if err != nil {
		return false
	}
	return arc.Instruction32(c.mem[word:word+4], c.order) == arc.TrapOpcode32
}

// matchActionPoint finds an enabled comparator of the given target kind
// matching value for a transaction of kind tt.
func (c *Core) matchActionPoint(target, value, tt uint32) (int, bool) {
	for slot := 0; slot < c.opts.ActionPoints; slot++ {
		ctrl := c.aux[arc.APControl(slot)]
		if ctrl&arc.APTransactionMask == arc.APTransactionDisable {
			continue
		}
		if ctrl&arc.APTargetMask != target {
			continue
		}
		if ctrl&tt == 0 {
			continue
		}
		if c.aux[arc.APMatchValue(slot)] == value {
			return slot, true
		}
	}
	return 0, false
}

func (c *Core) haltOnActionPoint(slot int) {
	c.halt(arc.DebugActionPointHalt | uint32(1<<slot)<<arc.DebugASRShift)
}

func (c *Core) halt(cause uint32) {
	c.status32 |= arc.Status32Halt
	c.debug |= cause
}
