// Package runcontrol implements halt, resume and single-step for one ARC
// core, along with the breakpoint and watchpoint entry points a debugger
// front end calls.
//
// The Controller owns the core's run state and drives three layers:
//
//   - Handshake, the debug entry/exit register protocol that brackets every
//     halt and resume
//   - the breakpoint, watchpoint and aux register action point managers,
//     which share one action point allocator
//   - the register cache and cache-coherency controller
//
// State changes are published on an event.Publisher using the topics in
// events.go.
//
// A Controller is driven by a single control goroutine and performs no
// locking. Operations block until the transport returns; there is no
// cancellation, so none of the methods take a context.
package runcontrol
