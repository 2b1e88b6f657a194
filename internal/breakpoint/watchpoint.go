package breakpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// Mode selects the accesses a watchpoint triggers on.
type Mode int

const (
	// Read triggers on loads.
	Read Mode = iota
	// Write triggers on stores.
	Write
	// Access triggers on loads and stores.
	Access
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Access:
		return "access"
	default:
		return "unknown"
	}
}

// ParseMode parses "read", "write" or "access".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	case "access", "a", "rw":
		return Access, nil
	}
	return Read, fmt.Errorf("%w: watchpoint mode %q", arc.ErrInvalidArgument, s)
}

func (m Mode) transaction() (actionpoint.TransactionKind, bool) {
	switch m {
	case Read:
		return actionpoint.Read, true
	case Write:
		return actionpoint.Write, true
	case Access:
		return actionpoint.ReadWrite, true
	}
	return actionpoint.Disabled, false
}

// Watchpoint is a data watchpoint. Only the start address is matched.
type Watchpoint struct {
	ID      uint32
	Address uint32
	Length  int
	Mode    Mode

	state InstallState
}

// NewWatchpoint creates an uninstalled watchpoint with a fresh unique id.
func NewWatchpoint(address uint32, length int, mode Mode) *Watchpoint {
	return &Watchpoint{
		ID:      nextID(),
		Address: address,
		Length:  length,
		Mode:    mode,
		state:   NotInstalled{},
	}
}

// State returns the install state.
func (w *Watchpoint) State() InstallState {
	if w.state == nil {
		return NotInstalled{}
	}
	return w.state
}

// Installed reports whether the watchpoint holds an action point.
func (w *Watchpoint) Installed() bool { return installed(w.state) }

// WatchpointManager owns the watchpoint collection of one core.
type WatchpointManager struct {
	alloc *actionpoint.Allocator
	log   *logging.Logger

	byID map[uint32]*Watchpoint
	ids  []uint32
}

// NewWatchpointManager creates a watchpoint manager.
func NewWatchpointManager(alloc *actionpoint.Allocator, log *logging.Logger) *WatchpointManager {
	if log == nil {
		log = logging.Nop
	}
	return &WatchpointManager{
		alloc: alloc,
		log:   log.WithComponent("watchpoint"),
		byID:  make(map[uint32]*Watchpoint),
	}
}

// Add registers wp and installs it, with the same collection semantics as
// Manager.Add.
func (m *WatchpointManager) Add(wp *Watchpoint) error {
	if wp.ID == 0 {
		wp.ID = nextID()
	}
	_, known := m.byID[wp.ID]
	if !known {
		m.byID[wp.ID] = wp
		m.ids = append(m.ids, wp.ID)
	}
	err := m.Set(wp)
	if err != nil && !known && !arc.IsTransportError(err) {
		m.drop(wp.ID)
	}
	return err
}

// Remove uninstalls wp and drops it from the collection.
func (m *WatchpointManager) Remove(wp *Watchpoint) error {
	if err := m.Unset(wp); err != nil {
		return err
	}
	m.drop(wp.ID)
	return nil
}

// Set installs wp. Setting an installed watchpoint is a no-op.
func (m *WatchpointManager) Set(wp *Watchpoint) error {
	if wp.Installed() {
		m.log.Warn("wpid %d: watchpoint already set", wp.ID)
		return nil
	}
	tt, ok := wp.Mode.transaction()
	if !ok {
		m.log.Error("wpid %d: watchpoint mode neither read, write nor access", wp.ID)
		return fmt.Errorf("%w: watchpoint mode %d", arc.ErrInvalidArgument, int(wp.Mode))
	}
	slot, err := m.alloc.Allocate(wp.Address, actionpoint.MemoryAddress, tt, wp)
	if err != nil {
		return err
	}
	wp.state = HardwareInstalled{Slot: slot}
	m.log.Debug("wpid %d: ap %d at 0x%08x (%s)", wp.ID, slot, wp.Address, wp.Mode)
	return nil
}

// Unset releases the action point of wp. Unsetting a watchpoint that is not
// installed is a no-op.
func (m *WatchpointManager) Unset(wp *Watchpoint) error {
	st, ok := wp.State().(HardwareInstalled)
	if !ok {
		m.log.Warn("wpid %d: watchpoint not set", wp.ID)
		return nil
	}
	if _, ok := m.alloc.Slot(st.Slot); !ok {
		m.log.Debug("Invalid ActionPoint ID: %d in watchpoint: %d", st.Slot, wp.ID)
		return nil
	}
	if err := m.alloc.Release(st.Slot); err != nil {
		return err
	}
	wp.state = NotInstalled{}
	m.log.Debug("wpid %d: released ap %d", wp.ID, st.Slot)
	return nil
}

// EnableAllPending installs every registered watchpoint that is not
// installed. Individual failures are logged and skipped.
func (m *WatchpointManager) EnableAllPending() {
	for _, wp := range m.All() {
		if wp.Installed() {
			continue
		}
		if err := m.Set(wp); err != nil {
			m.log.Warn("wpid %d: enable failed: %v", wp.ID, err)
		}
	}
}

// RemoveAll uninstalls every watchpoint and empties the collection.
func (m *WatchpointManager) RemoveAll() error {
	var errs []error
	for _, wp := range m.All() {
		if err := m.Unset(wp); err != nil {
			errs = append(errs, fmt.Errorf("wpid %d: %w", wp.ID, err))
		}
		wp.state = NotInstalled{}
	}
	m.byID = make(map[uint32]*Watchpoint)
	m.ids = nil
	return errors.Join(errs...)
}

// FindBySlot returns the watchpoint holding action point slot.
func (m *WatchpointManager) FindBySlot(slot int) (*Watchpoint, bool) {
	for _, id := range m.ids {
		wp := m.byID[id]
		if st, ok := wp.State().(HardwareInstalled); ok && st.Slot == slot {
			return wp, true
		}
	}
	return nil, false
}

// Get returns the watchpoint with the given id.
func (m *WatchpointManager) Get(id uint32) (*Watchpoint, bool) {
	wp, ok := m.byID[id]
	return wp, ok
}

// All returns the registered watchpoints in insertion order.
func (m *WatchpointManager) All() []*Watchpoint {
	out := make([]*Watchpoint, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id])
	}
	return out
}

// Len returns the number of registered watchpoints.
func (m *WatchpointManager) Len() int { return len(m.ids) }

func (m *WatchpointManager) drop(id uint32) {
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
