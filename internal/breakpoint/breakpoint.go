package breakpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// Kind selects how a breakpoint is implemented.
type Kind int

const (
	// Hardware breakpoints use an instruction-address action point.
	Hardware Kind = iota
	// Software breakpoints patch a trap instruction into memory.
	Software
)

// String returns a string representation of the breakpoint kind.
func (k Kind) String() string {
	switch k {
	case Hardware:
		return "hw"
	case Software:
		return "sw"
	default:
		return "unknown"
	}
}

// ParseKind parses "hw"/"hardware" or "sw"/"software".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "hw", "hard", "hardware":
		return Hardware, nil
	case "sw", "soft", "software":
		return Software, nil
	}
	return Hardware, fmt.Errorf("%w: breakpoint kind %q", arc.ErrInvalidArgument, s)
}

// Breakpoint is an execution breakpoint.
type Breakpoint struct {
	ID      uint32
	Address uint32
	Length  int // 2 or 4 for software breakpoints
	Kind    Kind

	state InstallState
}

// New creates an uninstalled breakpoint with a fresh unique id.
func New(address uint32, length int, kind Kind) *Breakpoint {
	return &Breakpoint{
		ID:      nextID(),
		Address: address,
		Length:  length,
		Kind:    kind,
		state:   NotInstalled{},
	}
}

// State returns the install state.
func (b *Breakpoint) State() InstallState {
	if b.state == nil {
		return NotInstalled{}
	}
	return b.state
}

// Installed reports whether the breakpoint currently affects the target.
func (b *Breakpoint) Installed() bool { return installed(b.state) }

// Manager owns the breakpoint collection of one core.
type Manager struct {
	mem    arc.Memory
	order  binary.ByteOrder
	alloc  *actionpoint.Allocator
	caches CacheInvalidator
	log    *logging.Logger

	byID map[uint32]*Breakpoint
	ids  []uint32 // insertion order
}

// NewManager creates a breakpoint manager.
func NewManager(mem arc.Memory, order binary.ByteOrder, alloc *actionpoint.Allocator, caches CacheInvalidator, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop
	}
	if order == nil {
		order = binary.LittleEndian
	}
	return &Manager{
		mem:    mem,
		order:  order,
		alloc:  alloc,
		caches: caches,
		log:    log.WithComponent("breakpoint"),
		byID:   make(map[uint32]*Breakpoint),
	}
}

// Add registers bp and installs it. A second breakpoint at an address already
// in the collection is rejected. Argument and resource failures leave the
// collection unchanged; transport failures leave bp registered but pending.
func (m *Manager) Add(bp *Breakpoint) error {
	if bp.ID == 0 {
		bp.ID = nextID()
	}
	_, known := m.byID[bp.ID]
	if !known {
		if other, ok := m.Find(bp.Address); ok {
			m.log.Error("Duplicate breakpoint at 0x%08x (bpid %d)", bp.Address, other.ID)
			return fmt.Errorf("%w: breakpoint at 0x%08x already exists", arc.ErrInvalidArgument, bp.Address)
		}
		m.byID[bp.ID] = bp
		m.ids = append(m.ids, bp.ID)
	}
	err := m.Set(bp)
	if err != nil && !known && !arc.IsTransportError(err) {
		m.drop(bp.ID)
	}
	return err
}

// Remove uninstalls bp and drops it from the collection. On failure the
// entry is kept so the call can be retried.
func (m *Manager) Remove(bp *Breakpoint) error {
	if err := m.Unset(bp); err != nil {
		return err
	}
	m.drop(bp.ID)
	return nil
}

// Set installs bp. Setting an installed breakpoint is a no-op.
func (m *Manager) Set(bp *Breakpoint) error {
	if bp.Installed() {
		m.log.Warn("bpid %d: breakpoint already set", bp.ID)
		return nil
	}

	if bp.Kind == Hardware {
		slot, err := m.alloc.Allocate(bp.Address, actionpoint.InstructionAddress, actionpoint.ReadWrite, bp)
		if err != nil {
			return err
		}
		bp.state = HardwareInstalled{Slot: slot}
		m.log.Debug("bpid %d: ap %d at 0x%08x", bp.ID, slot, bp.Address)
		return nil
	}

	trap, err := arc.TrapBytes(bp.Length, m.order)
	if err != nil {
		m.log.Error("Invalid breakpoint length: target supports only 2 or 4")
		return err
	}
	original, err := m.mem.ReadMemory(bp.Address, bp.Length)
	if err != nil {
		return err
	}
	if err := m.mem.WriteMemory(bp.Address, trap); err != nil {
		return err
	}
	verify, err := m.mem.ReadMemory(bp.Address, bp.Length)
	if err != nil {
		return err
	}
	if !bytes.Equal(verify, trap) {
		m.log.Error("Unable to set %dbit breakpoint at address 0x%08x - check that memory is read/writable: %v",
			bp.Length*8, bp.Address, arc.ErrVerificationMismatch)
	}

	bp.state = SoftwareInstalled{Original: original}
	return m.caches.Invalidate()
}

// Unset uninstalls bp. Unsetting a breakpoint that is not installed is a
// no-op. A software patch is only undone if the trap is still in memory.
func (m *Manager) Unset(bp *Breakpoint) error {
	switch st := bp.State().(type) {
	case NotInstalled:
		m.log.Warn("bpid %d: breakpoint not set", bp.ID)
		return nil

	case HardwareInstalled:
		if _, ok := m.alloc.Slot(st.Slot); !ok {
			m.log.Debug("Invalid ActionPoint ID: %d in breakpoint: %d", st.Slot, bp.ID)
			return nil
		}
		if err := m.alloc.Release(st.Slot); err != nil {
			return err
		}
		bp.state = NotInstalled{}
		m.log.Debug("bpid %d: released ap %d", bp.ID, st.Slot)

	case SoftwareInstalled:
		trap, err := arc.TrapBytes(bp.Length, m.order)
		if err != nil {
			m.log.Error("Invalid breakpoint length: target supports only 2 or 4")
			return err
		}
		current, err := m.mem.ReadMemory(bp.Address, bp.Length)
		if err != nil {
			return err
		}
		if bytes.Equal(current, trap) {
			if err := arc.GuardedWrite(m.mem, bp.Address, st.Original); err != nil {
				return err
			}
		} else {
			m.log.Debug("bpid %d: trap at 0x%08x was overwritten, leaving memory alone", bp.ID, bp.Address)
		}
		bp.state = NotInstalled{}
	}

	return m.caches.Invalidate()
}

// EnableAllPending installs every registered breakpoint that is not
// installed. Individual failures are logged and skipped.
func (m *Manager) EnableAllPending() {
	for _, bp := range m.All() {
		if bp.Installed() {
			continue
		}
		if err := m.Set(bp); err != nil {
			m.log.Warn("bpid %d: enable failed: %v", bp.ID, err)
		}
	}
}

// RemoveAll uninstalls every breakpoint and empties the collection, even
// when uninstalling fails. The failures are returned joined.
func (m *Manager) RemoveAll() error {
	var errs []error
	for _, bp := range m.All() {
		if err := m.Unset(bp); err != nil {
			errs = append(errs, fmt.Errorf("bpid %d: %w", bp.ID, err))
		}
		// The slot, if any, is reclaimed by the allocator reset.
		bp.state = NotInstalled{}
	}
	m.byID = make(map[uint32]*Breakpoint)
	m.ids = nil
	return errors.Join(errs...)
}

// Find returns the first registered breakpoint at address.
func (m *Manager) Find(address uint32) (*Breakpoint, bool) {
	for _, id := range m.ids {
		if bp := m.byID[id]; bp.Address == address {
			return bp, true
		}
	}
	return nil, false
}

// Get returns the breakpoint with the given id.
func (m *Manager) Get(id uint32) (*Breakpoint, bool) {
	bp, ok := m.byID[id]
	return bp, ok
}

// All returns the registered breakpoints in insertion order.
func (m *Manager) All() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id])
	}
	return out
}

// Len returns the number of registered breakpoints.
func (m *Manager) Len() int { return len(m.ids) }

func (m *Manager) drop(id uint32) {
	if _, ok := m.byID[id]; !ok {
		return
	}
	delete(m.byID, id)
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
}
