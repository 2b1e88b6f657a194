package actionpoint

import (
	"errors"
	"fmt"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// Slot is one hardware comparator.
type Slot struct {
	Index       int
	Used        bool
	MatchValue  uint32
	Target      TargetKind
	Transaction TransactionKind

	// Owner is an opaque back reference to whatever holds the slot.
	Owner any
}

// Allocator owns the comparator pool of one core.
type Allocator struct {
	regs  arc.Registers
	slots []Slot
	avail int
	log   *logging.Logger
}

// NewAllocator creates an allocator for capacity comparators.
func NewAllocator(regs arc.Registers, capacity int, log *logging.Logger) *Allocator {
	if log == nil {
		log = logging.Nop
	}
	slots := make([]Slot, capacity)
	for i := range slots {
		slots[i].Index = i
	}
	return &Allocator{
		regs:  regs,
		slots: slots,
		avail: capacity,
		log:   log.WithComponent("actionpoint"),
	}
}

// Capacity returns the number of comparators.
func (a *Allocator) Capacity() int { return len(a.slots) }

// Available returns the number of free comparators.
func (a *Allocator) Available() int { return a.avail }

// Used returns the number of comparators in use.
func (a *Allocator) Used() int { return len(a.slots) - a.avail }

// Slot returns a copy of slot index.
func (a *Allocator) Slot(index int) (Slot, bool) {
	if index < 0 || index >= len(a.slots) {
		return Slot{}, false
	}
	return a.slots[index], true
}

// Slots returns a copy of the whole pool.
func (a *Allocator) Slots() []Slot {
	out := make([]Slot, len(a.slots))
	copy(out, a.slots)
	return out
}

// Find returns the index of the first used slot satisfying match.
func (a *Allocator) Find(match func(Slot) bool) (int, bool) {
	for i := range a.slots {
		if a.slots[i].Used && match(a.slots[i]) {
			return i, true
		}
	}
	return 0, false
}

// Allocate programs the first free comparator and returns its index.
// Transport failures leave the slot free but possibly partially programmed.
func (a *Allocator) Allocate(match uint32, target TargetKind, tt TransactionKind, owner any) (int, error) {
	switch tt {
	case Read, Write, ReadWrite:
	case Disabled:
		return 0, fmt.Errorf("%w: cannot allocate a disabled action point", arc.ErrInvalidArgument)
	default:
		return 0, fmt.Errorf("%w: transaction kind %d", arc.ErrInvalidArgument, int(tt))
	}
	if a.avail < 1 {
		a.log.Error("No ActionPoint free, maximum amount is %d", len(a.slots))
		return 0, arc.ErrResourceExhausted
	}

	index := -1
	for i := range a.slots {
		if !a.slots[i].Used {
			index = i
			break
		}
	}
	if index < 0 {
		a.log.Error("No ActionPoint free, maximum amount is %d", len(a.slots))
		return 0, arc.ErrResourceExhausted
	}

	if err := a.regs.WriteAuxRegister(arc.APMatchValue(index), match); err != nil {
		return 0, err
	}
	if err := a.regs.WriteAuxRegister(arc.APMatchMask(index), 0); err != nil {
		return 0, err
	}
	if err := a.regs.WriteAuxRegister(arc.APControl(index), tt.control()|target.control()); err != nil {
		return 0, err
	}

	a.slots[index] = Slot{
		Index:       index,
		Used:        true,
		MatchValue:  match,
		Target:      target,
		Transaction: tt,
		Owner:       owner,
	}
	a.avail--
	a.log.Debug("ap %d: %s %s match 0x%08x", index, target, tt, match)
	return index, nil
}

// Release disables comparator index. Releasing a free slot is a no-op.
func (a *Allocator) Release(index int) error {
	if index < 0 || index >= len(a.slots) {
		return fmt.Errorf("%w: action point %d out of range", arc.ErrInvalidArgument, index)
	}
	if !a.slots[index].Used {
		a.log.Debug("ap %d already free", index)
		return nil
	}
	if err := a.regs.WriteAuxRegister(arc.APControl(index), arc.APTransactionDisable); err != nil {
		return err
	}
	a.slots[index] = Slot{Index: index}
	a.avail++
	return nil
}

// Reset disables every used comparator and frees the whole pool, even when
// the hardware writes fail. The errors are logged and returned joined.
func (a *Allocator) Reset() error {
	var errs []error
	for i := range a.slots {
		if !a.slots[i].Used {
			continue
		}
		if err := a.regs.WriteAuxRegister(arc.APControl(i), arc.APTransactionDisable); err != nil {
			a.log.Warn("ap %d: disable failed during reset: %v", i, err)
			errs = append(errs, err)
		}
		a.slots[i] = Slot{Index: i}
	}
	a.avail = len(a.slots)
	return errors.Join(errs...)
}
