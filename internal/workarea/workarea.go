// Package workarea hands out scratch ranges of target RAM for code the
// debugger runs on the target, such as flash or checksum algorithms.
//
// Areas can optionally back up the memory they cover; the backup is written
// back when the area is freed. Every area is released on a real resume.
package workarea

import (
	"errors"
	"fmt"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// ErrNoSpace is returned when the pool cannot satisfy an allocation.
var ErrNoSpace = errors.New("no working area available")

// alignment of every area start and size.
const alignment = 4

// Area is an allocated range of target memory.
type Area struct {
	Address uint32
	Size    uint32

	backup []byte
	free   bool
}

// Freed reports whether the area was released.
func (a *Area) Freed() bool { return a.free }

// Pool is a first-fit allocator over one working memory window.
type Pool struct {
	base uint32
	size uint32
	mem  arc.Memory
	log  *logging.Logger

	areas []*Area // sorted by address
}

// NewPool creates a pool over [base, base+size). mem is used for backups
// and may be nil when no area requests one.
func NewPool(base, size uint32, mem arc.Memory, log *logging.Logger) *Pool {
	if log == nil {
		log = logging.Nop
	}
	return &Pool{
		base: base,
		size: size &^ (alignment - 1),
		mem:  mem,
		log:  log.WithComponent("workarea"),
	}
}

// Alloc reserves size bytes. With backup set the current contents are saved
// and restored by Free.
func (p *Pool) Alloc(size uint32, backup bool) (*Area, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: zero sized working area", arc.ErrInvalidArgument)
	}
	size = (size + alignment - 1) &^ (alignment - 1)

	addr := p.base
	insert := len(p.areas)
	for i, a := range p.areas {
		if a.Address-addr >= size {
			insert = i
			break
		}
		addr = a.Address + a.Size
	}
	if insert == len(p.areas) && uint64(addr)+uint64(size) > uint64(p.base)+uint64(p.size) {
		p.log.Warn("not enough working area available (requested %d)", size)
		return nil, ErrNoSpace
	}

	area := &Area{Address: addr, Size: size}
	if backup {
		if p.mem == nil {
			return nil, fmt.Errorf("%w: backup requested without memory access", arc.ErrInvalidArgument)
		}
		data, err := p.mem.ReadMemory(addr, int(size))
		if err != nil {
			return nil, err
		}
		area.backup = data
	}

	p.areas = append(p.areas, nil)
	copy(p.areas[insert+1:], p.areas[insert:])
	p.areas[insert] = area
	p.log.Debug("allocated working area 0x%08x+%d", area.Address, area.Size)
	return area, nil
}

// Free releases area, restoring its backup if it has one.
func (p *Pool) Free(area *Area) error {
	if area == nil || area.free {
		return nil
	}
	if area.backup != nil {
		if err := p.mem.WriteMemory(area.Address, area.backup); err != nil {
			return err
		}
	}
	area.free = true
	for i, a := range p.areas {
		if a == area {
			p.areas = append(p.areas[:i], p.areas[i+1:]...)
			break
		}
	}
	return nil
}

// FreeAll releases every area. Restore failures are logged and the area is
// dropped regardless.
func (p *Pool) FreeAll() {
	for _, a := range p.areas {
		if a.backup != nil {
			if err := p.mem.WriteMemory(a.Address, a.backup); err != nil {
				p.log.Warn("working area 0x%08x: restore failed: %v", a.Address, err)
			}
		}
		a.free = true
	}
	p.areas = nil
}

// InUse returns the number of allocated areas.
func (p *Pool) InUse() int { return len(p.areas) }

// Available returns the number of unallocated bytes.
func (p *Pool) Available() uint32 {
	used := uint32(0)
	for _, a := range p.areas {
		used += a.Size
	}
	return p.size - used
}
