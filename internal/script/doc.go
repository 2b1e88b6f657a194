// Package script runs Lua debug sessions against a run-control target.
//
// A Runner exposes a global table named target:
//
//	target.halt()
//	local id = target.add_breakpoint(0x100, 4, "hw")
//	target.resume{handle_breakpoints = true}
//	target.poll()
//	print(target.state(), target.reason(), string.format("%x", target.pc()))
//	target.remove_breakpoint(id)
//
// Failed operations raise a Lua error carrying the Go error text. Only the
// base, table, string and math libraries are opened.
package script
