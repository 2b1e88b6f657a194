// Package cachectl keeps the core's instruction and data caches coherent
// with debugger memory writes.
package cachectl

import (
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// Controller issues cache maintenance through the aux register interface.
type Controller struct {
	regs    arc.Registers
	log     *logging.Logger
	flushed bool
}

// New creates a cache controller.
func New(regs arc.Registers, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.Nop
	}
	return &Controller{regs: regs, log: log.WithComponent("cachectl")}
}

// Invalidate invalidates I$ and D$. D$ is switched to invalidate-only mode
// for the duration so dirty lines are dropped rather than written back over
// debugger patches.
func (c *Controller) Invalidate() error {
	if err := c.regs.WriteAuxRegister(arc.AuxICIVIC, arc.ICInvalidate); err != nil {
		return err
	}
	backup, err := c.regs.ReadAuxRegister(arc.AuxDCCtrl)
	if err != nil {
		return err
	}
	if err := c.regs.WriteAuxRegister(arc.AuxDCCtrl, backup&^arc.DCCtrlInvalidate); err != nil {
		return err
	}
	if err := c.regs.WriteAuxRegister(arc.AuxDCIVDC, arc.DCInvalidate); err != nil {
		return err
	}
	return c.regs.WriteAuxRegister(arc.AuxDCCtrl, backup)
}

// Flush writes back D$. It is skipped when D$ was already flushed since the
// last ResetState.
func (c *Controller) Flush() error {
	if c.flushed {
		c.log.Debug("data cache already flushed")
		return nil
	}
	if err := c.regs.WriteAuxRegister(arc.AuxDCFlush, arc.DCFlush); err != nil {
		return err
	}
	c.flushed = true
	return nil
}

// Flushed reports whether D$ was flushed since the last ResetState.
func (c *Controller) Flushed() bool { return c.flushed }

// ResetState forgets cache state tracking. Called on every debug entry.
func (c *Controller) ResetState() {
	c.flushed = false
}
