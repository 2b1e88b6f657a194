package sim

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dshills/arcdbg/internal/arc"
)

// ErrBusError is wrapped by transport errors for accesses outside RAM.
var ErrBusError = errors.New("bus error")

// ErrInjected is the default error used by injected faults.
var ErrInjected = errors.New("injected transport failure")

// InstructionSize is the size of every simulated instruction.
const InstructionSize = 4

const debugStatusMask = arc.DebugBreakpointHalt | arc.DebugActionPointHalt | arc.DebugSelfHalt |
	arc.DebugASRMask<<arc.DebugASRShift

// Options configures a Core.
type Options struct {
	MemoryBase    uint32
	MemorySize    uint32
	ByteOrder     binary.ByteOrder
	ActionPoints  int
	RunBudget     int  // instructions executed per resume before giving up
	SRSTPullsTRST bool // reset strap configuration
}

// DefaultOptions returns a 64 KiB little-endian core with 8 action points.
func DefaultOptions() Options {
	return Options{
		MemorySize:   0x10000,
		ByteOrder:    binary.LittleEndian,
		ActionPoints: arc.MaxActionPoints,
		RunBudget:    1024,
	}
}

// AuxWrite is one recorded aux register write.
type AuxWrite struct {
	Addr  uint32
	Value uint32
}

// DataAccess describes the memory access performed by the instruction at
// some address.
type DataAccess struct {
	Addr  uint32
	Write bool
}

type fault struct {
	op   string
	addr uint32
}

// Core is a simulated ARC core.
type Core struct {
	opts  Options
	order binary.ByteOrder

	mem  []byte
	aux  map[uint32]uint32
	core [arc.NumCoreRegisters]uint32

	pc       uint32
	status32 uint32
	debug    uint32

	accesses  map[uint32]DataAccess
	protected map[uint32]bool
	faults    map[fault]error

	guard bool
	srst  bool

	// Executed lists the address of every instruction retired.
	Executed []uint32

	// Writes lists every aux register write in order.
	Writes []AuxWrite

	// GuardedWrites counts memory writes performed with the algorithm guard raised.
	GuardedWrites int

	// ICacheInvalidations, DCacheInvalidations and DCacheFlushes count cache
	// maintenance operations.
	ICacheInvalidations int
	DCacheInvalidations int
	DCacheFlushes       int
}

// New creates a running core.
func New(opts Options) *Core {
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	if opts.ActionPoints <= 0 || opts.ActionPoints > arc.MaxActionPoints {
		opts.ActionPoints = arc.MaxActionPoints
	}
	if opts.RunBudget <= 0 {
		opts.RunBudget = 1024
	}
	return &Core{
		opts:      opts,
		order:     opts.ByteOrder,
		mem:       make([]byte, opts.MemorySize),
		aux:       make(map[uint32]uint32),
		accesses:  make(map[uint32]DataAccess),
		protected: make(map[uint32]bool),
		faults:    make(map[fault]error),
		pc:        opts.MemoryBase,
	}
}

// ByteOrder returns the memory byte order of the core.
func (c *Core) ByteOrder() binary.ByteOrder { return c.order }

// Halted reports whether STATUS32.H is set.
func (c *Core) Halted() bool { return c.status32&arc.Status32Halt != 0 }

// PC returns the program counter.
func (c *Core) PC() uint32 { return c.pc }

// SetPC moves the program counter without going through the transport.
func (c *Core) SetPC(pc uint32) { c.pc = pc }

// Debug returns the raw DEBUG register.
func (c *Core) Debug() uint32 { return c.debug }

// Aux returns the raw value of an aux register that has no special handling.
func (c *Core) Aux(addr uint32) uint32 { return c.aux[addr] }

// Load copies data into RAM, ignoring protection.
func (c *Core) Load(addr uint32, data []byte) error {
	off, err := c.offset(addr, len(data))
	if err != nil {
		return err
	}
	copy(c.mem[off:], data)
	return nil
}

// Peek returns a copy of RAM.
func (c *Core) Peek(addr uint32, length int) []byte {
	off, err := c.offset(addr, length)
	if err != nil {
		return nil
	}
	out := make([]byte, length)
	copy(out, c.mem[off:])
	return out
}

// Protect makes writes to the given range silently ignored unless the
// algorithm guard is raised.
func (c *Core) Protect(addr uint32, length int) {
	for i := 0; i < length; i++ {
		c.protected[addr+uint32(i)] = true
	}
}

// SetDataAccess registers the memory access performed by the instruction at pc.
func (c *Core) SetDataAccess(pc uint32, access DataAccess) {
	c.accesses[pc] = access
}

// AssertSRST drives the simulated system reset line.
func (c *Core) AssertSRST(asserted bool) { c.srst = asserted }

// SRSTAsserted reports the system reset line.
func (c *Core) SRSTAsserted() bool { return c.srst }

// SRSTPullsTRST reports the reset strap configuration.
func (c *Core) SRSTPullsTRST() bool { return c.opts.SRSTPullsTRST }

// FailAuxRead makes reads of an aux register fail.
func (c *Core) FailAuxRead(addr uint32, err error) { c.inject("read-aux", addr, err) }

// FailAuxWrite makes writes of an aux register fail.
func (c *Core) FailAuxWrite(addr uint32, err error) { c.inject("write-aux", addr, err) }

// FailMemoryRead makes memory reads starting at addr fail.
func (c *Core) FailMemoryRead(addr uint32, err error) { c.inject("read-mem", addr, err) }

// FailMemoryWrite makes memory writes starting at addr fail.
func (c *Core) FailMemoryWrite(addr uint32, err error) { c.inject("write-mem", addr, err) }

// ClearFaults removes every injected fault.
func (c *Core) ClearFaults() { c.faults = make(map[fault]error) }

func (c *Core) inject(op string, addr uint32, err error) {
	if err == nil {
		err = ErrInjected
	}
	c.faults[fault{op, addr}] = err
}

func (c *Core) check(op string, addr uint32) error {
	if err, ok := c.faults[fault{op, addr}]; ok {
		return &arc.TransportError{Op: op, Address: addr, Err: err}
	}
	return nil
}

func (c *Core) offset(addr uint32, length int) (uint32, error) {
	if addr < c.opts.MemoryBase || uint64(addr)+uint64(length) > uint64(c.opts.MemoryBase)+uint64(len(c.mem)) {
		return 0, fmt.Errorf("%w at 0x%08x", ErrBusError, addr)
	}
	return addr - c.opts.MemoryBase, nil
}

// ReadMemory implements arc.Memory.
func (c *Core) ReadMemory(addr uint32, length int) ([]byte, error) {
	if err := c.check("read-mem", addr); err != nil {
		return nil, err
	}
	off, err := c.offset(addr, length)
	if err != nil {
		return nil, &arc.TransportError{Op: "read-mem", Address: addr, Err: err}
	}
	out := make([]byte, length)
	copy(out, c.mem[off:])
	return out, nil
}

// WriteMemory implements arc.Memory.
func (c *Core) WriteMemory(addr uint32, data []byte) error {
	if err := c.check("write-mem", addr); err != nil {
		return err
	}
	off, err := c.offset(addr, len(data))
	if err != nil {
		return &arc.TransportError{Op: "write-mem", Address: addr, Err: err}
	}
	if c.guard {
		c.GuardedWrites++
	}
	for i, b := range data {
		if c.protected[addr+uint32(i)] && !c.guard {
			continue
		}
		c.mem[off+uint32(i)] = b
	}
	return nil
}

// SetAlgorithmRunning implements arc.AlgorithmGuard.
func (c *Core) SetAlgorithmRunning(running bool) { c.guard = running }

// ReadCoreRegister implements arc.Registers.
func (c *Core) ReadCoreRegister(num uint32) (uint32, error) {
	if err := c.check("read-core", num); err != nil {
		return 0, err
	}
	if num >= arc.NumCoreRegisters {
		return 0, &arc.TransportError{Op: "read-core", Address: num, Err: ErrBusError}
	}
	return c.core[num], nil
}

// WriteCoreRegister implements arc.Registers.
func (c *Core) WriteCoreRegister(num uint32, value uint32) error {
	if err := c.check("write-core", num); err != nil {
		return err
	}
	if num >= arc.NumCoreRegisters {
		return &arc.TransportError{Op: "write-core", Address: num, Err: ErrBusError}
	}
	c.core[num] = value
	return nil
}

// ReadAuxRegister implements arc.Registers.
func (c *Core) ReadAuxRegister(addr uint32) (uint32, error) {
	if err := c.check("read-aux", addr); err != nil {
		return 0, err
	}
	switch addr {
	case arc.AuxPC:
		return c.pc, nil
	case arc.AuxStatus32:
		return c.status32, nil
	case arc.AuxDebug:
		return c.debug, nil
	}
	return c.aux[addr], nil
}

// WriteAuxRegister implements arc.Registers.
func (c *Core) WriteAuxRegister(addr uint32, value uint32) error {
	if err := c.check("write-aux", addr); err != nil {
		return err
	}
	c.Writes = append(c.Writes, AuxWrite{Addr: addr, Value: value})

	switch addr {
	case arc.AuxPC:
		c.pc = value
	case arc.AuxDebug:
		c.debug = c.debug&debugStatusMask | value&^(debugStatusMask|arc.DebugSingleStep|arc.DebugForceHalt)
		if value&arc.DebugForceHalt != 0 {
			c.status32 |= arc.Status32Halt
		}
		if value&arc.DebugSingleStep != 0 && c.Halted() {
			c.step()
		}
	case arc.AuxStatus32:
		wasHalted := c.Halted()
		c.status32 = value
		if wasHalted && !c.Halted() {
			c.run()
		}
	case arc.AuxICIVIC:
		c.ICacheInvalidations++
	case arc.AuxDCIVDC:
		c.DCacheInvalidations++
	case arc.AuxDCFlush:
		c.DCacheFlushes++
	default:
		c.aux[addr] = value
	}
	return nil
}
