package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arcdbg/internal/actionpoint"
	"github.com/dshills/arcdbg/internal/breakpoint"
	"github.com/dshills/arcdbg/internal/logging"
	"github.com/dshills/arcdbg/internal/runcontrol"
	"github.com/dshills/arcdbg/internal/workarea"
)

// Target is the run-control surface driven by scripts.
type Target interface {
	Halt() error
	Resume(current bool, address uint32, handleBreakpoints, debugExecution bool) error
	Step(current bool, address uint32, handleBreakpoints bool) error
	AddBreakpoint(bp *breakpoint.Breakpoint) error
	RemoveBreakpoint(bp *breakpoint.Breakpoint) error
	AddWatchpoint(wp *breakpoint.Watchpoint) error
	RemoveWatchpoint(wp *breakpoint.Watchpoint) error
	AddAuxActionPoint(addr uint32, tt actionpoint.TransactionKind) error
	RemoveAuxActionPoint(addr uint32) error
	ResetAllBreakpointsAndWatchpoints()
	Poll() error
	State() runcontrol.ExecutionState
	DebugReason() runcontrol.DebugReason
	SavedPC() uint32
	ReadMemory(addr uint32, length int) ([]byte, error)
	AllocWorkArea(size uint32, backup bool) (*workarea.Area, error)
	FreeWorkArea(area *workarea.Area) error
}

// Runner executes Lua scripts against a Target.
//
// gopher-lua states are not goroutine-safe; a Runner must be used from a
// single goroutine.
type Runner struct {
	L      *lua.LState
	target Target
	out    io.Writer
	log    *logging.Logger

	breakpoints map[uint32]*breakpoint.Breakpoint
	watchpoints map[uint32]*breakpoint.Watchpoint
	workAreas   map[uint32]*workarea.Area
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput redirects print. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a Runner with the target table installed.
func New(target Target, opts ...Option) *Runner {
	r := &Runner{
		target:      target,
		out:         os.Stdout,
		log:         logging.Nop,
		breakpoints: make(map[uint32]*breakpoint.Breakpoint),
		watchpoints: make(map[uint32]*breakpoint.Watchpoint),
		workAreas:   make(map[uint32]*workarea.Area),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.Nop
	}
	r.log = r.log.WithComponent("script")

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	r.L = L

	L.SetGlobal("print", L.NewFunction(r.print))
	L.SetGlobal("target", r.targetTable())
	return r
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.L.Close()
}

// DoString runs a chunk of Lua code.
func (r *Runner) DoString(code string) error {
	return r.doWithRecovery(func() error {
		return r.L.DoString(code)
	})
}

// DoFile runs a Lua file.
func (r *Runner) DoFile(path string) error {
	r.log.Info("running %s", path)
	return r.doWithRecovery(func() error {
		return r.L.DoFile(path)
	})
}

func (r *Runner) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn()
}

func (r *Runner) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}
