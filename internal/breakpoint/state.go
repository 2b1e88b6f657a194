package breakpoint

import (
	"go.uber.org/atomic"
)

// idSeq hands out unique ids shared by breakpoints and watchpoints.
var idSeq = atomic.NewUint32(0)

func nextID() uint32 {
	return idSeq.Inc()
}

// InstallState is the hardware state of a breakpoint or watchpoint.
type InstallState interface {
	installState()
}

// NotInstalled means the entry does not affect the target.
type NotInstalled struct{}

// HardwareInstalled means the entry owns action point Slot.
type HardwareInstalled struct {
	Slot int
}

// SoftwareInstalled means a trap instruction is patched into memory.
// Original holds the replaced bytes in target byte order.
type SoftwareInstalled struct {
	Original []byte
}

func (NotInstalled) installState()      {}
func (HardwareInstalled) installState() {}
func (SoftwareInstalled) installState() {}

// CacheInvalidator invalidates the core's instruction and data caches.
type CacheInvalidator interface {
	Invalidate() error
}

func installed(s InstallState) bool {
	_, unset := s.(NotInstalled)
	return s != nil && !unset
}
