// Package sim provides an in-memory ARC core that speaks the arc transport
// interfaces.
//
// The simulated core is deliberately small. It has flat RAM, the aux
// registers the run-control code touches, a fixed four byte instruction size
// and a configurable comparator bank. It recognises the BRK and BRK_S trap
// opcodes, instruction-address action points, and memory-address action
// points for accesses registered with SetDataAccess.
//
// Execution is synchronous: clearing STATUS32.H runs the core until it halts
// or the run budget is used up, and writing DEBUG.SS steps one instruction.
//
// Every aux register write is recorded, executed instruction addresses are
// recorded, and register or memory accesses can be made to fail on demand,
// which makes the core usable as a test fixture.
package sim
