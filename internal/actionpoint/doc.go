// Package actionpoint manages the core's hardware comparators ("action
// points").
//
// An ARC core has a small fixed number of comparators shared by hardware
// breakpoints, watchpoints and raw aux register watches. The Allocator owns
// that pool as a fixed arena indexed by slot number: Allocate scans for the
// first free slot, programs its match value, mask and control registers, and
// hands the index to the caller; Release disables the slot again.
//
// AuxPoints layers address-keyed aux register watches on top of the same
// Allocator.
package actionpoint
