// Package breakpoint implements the breakpoint and watchpoint collections of
// a single ARC core.
//
// Hardware breakpoints and all watchpoints are backed by an action point
// slot from an actionpoint.Allocator. Software breakpoints patch a trap
// instruction into target memory and keep the original bytes so the patch
// can be undone exactly. The install state of each entry is an explicit
// variant (NotInstalled, HardwareInstalled, SoftwareInstalled).
//
// Managers are not safe for concurrent use; the run-control layer drives
// them from a single goroutine.
package breakpoint
