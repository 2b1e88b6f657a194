// Package main is the entry point for arcdbg, a scripted run-control
// session against a simulated ARC core.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/arcdbg/internal/arc/sim"
	"github.com/dshills/arcdbg/internal/config"
	"github.com/dshills/arcdbg/internal/event"
	"github.com/dshills/arcdbg/internal/logging"
	"github.com/dshills/arcdbg/internal/runcontrol"
	"github.com/dshills/arcdbg/internal/script"
	"github.com/dshills/arcdbg/internal/workarea"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	scriptPath string
	logLevel   string
	watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.scriptPath != "" {
		cfg.Script.Path = opts.scriptPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.Script.Path == "" {
		fmt.Fprintf(os.Stderr, "Error: no script given (use -script or script.path)\n")
		return 1
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: os.Stderr,
		Prefix: cfg.Logging.Prefix,
	})

	ctl := newController(cfg, log)

	runner := script.New(ctl, script.WithLogger(log))
	defer runner.Close()

	if err := runner.DoFile(cfg.Script.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	st := ctl.RunState()
	fmt.Printf("final state: %s reason=%s pc=0x%08x\n", st.State, st.Reason, st.SavedPC)

	if opts.watch && opts.configPath != "" {
		return watch(opts.configPath, log)
	}
	return 0
}

// newController builds the simulated core and the run-control stack on top.
func newController(cfg *config.Config, log *logging.Logger) *runcontrol.Controller {
	t := cfg.Target
	core := sim.New(sim.Options{
		MemoryBase:    t.MemoryBase,
		MemorySize:    t.MemorySize,
		ByteOrder:     cfg.ByteOrder(),
		ActionPoints:  t.ActionPoints,
		RunBudget:     t.RunBudget,
		SRSTPullsTRST: t.SRSTPullsTRST,
	})

	bus := event.NewBus(log)
	bus.Subscribe(runcontrol.TopicAll, func(ev event.Event) error {
		if sc, ok := ev.Payload.(runcontrol.StateChange); ok {
			fmt.Printf("[%s] %s reason=%s pc=0x%08x\n", ev.Type, sc.State, sc.Reason, sc.PC)
		}
		return nil
	})

	return runcontrol.New(runcontrol.Options{
		Transport:    core,
		ByteOrder:    cfg.ByteOrder(),
		ActionPoints: t.ActionPoints,
		WorkAreas:    workarea.NewPool(t.WorkAreaBase, t.WorkAreaSize, core, log),
		Reset:        core,
		Events:       bus,
		SettleDelay:  cfg.SettleDelay(),
		Logger:       log,
	})
}

// watch follows config changes and applies the log level until interrupted.
func watch(path string, log *logging.Logger) int {
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		log.SetLevel(cfg.LogLevel())
		log.Info("config reloaded, log level %s", cfg.LogLevel())
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to watch config: %v\n", err)
		return 1
	}
	defer w.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.scriptPath, "script", "", "Lua session script")
	flag.StringVar(&opts.scriptPath, "s", "", "Lua session script (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.watch, "watch", false, "Keep running and reload the config file on change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "arcdbg - ARC run-control session runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: arcdbg [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arcdbg -s session.lua\n")
		fmt.Fprintf(os.Stderr, "  arcdbg -c arcdbg.toml -s session.lua -log-level debug\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("arcdbg %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}
	return opts
}
