package config

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// Config is the complete session configuration.
type Config struct {
	Target  TargetConfig  `toml:"target" yaml:"target"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
}

// TargetConfig describes the core being debugged.
type TargetConfig struct {
	Name          string `toml:"name" yaml:"name"`
	ActionPoints  int    `toml:"action_points" yaml:"action_points"`
	SettleDelay   string `toml:"settle_delay" yaml:"settle_delay"`
	ByteOrder     string `toml:"byte_order" yaml:"byte_order"`
	SRSTPullsTRST bool   `toml:"srst_pulls_trst" yaml:"srst_pulls_trst"`

	// Simulator memory and the working area window inside it.
	MemoryBase   uint32 `toml:"memory_base" yaml:"memory_base"`
	MemorySize   uint32 `toml:"memory_size" yaml:"memory_size"`
	WorkAreaBase uint32 `toml:"work_area_base" yaml:"work_area_base"`
	WorkAreaSize uint32 `toml:"work_area_size" yaml:"work_area_size"`

	// RunBudget bounds how many instructions the simulator retires per resume.
	RunBudget int `toml:"run_budget" yaml:"run_budget"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// ScriptConfig names the Lua script run by the binary.
type ScriptConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Name:         "arc700",
			ActionPoints: arc.MaxActionPoints,
			SettleDelay:  "1ms",
			ByteOrder:    "little",
			MemoryBase:   0,
			MemorySize:   0x10000,
			WorkAreaBase: 0xC000,
			WorkAreaSize: 0x4000,
			RunBudget:    4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Prefix: "arcdbg",
		},
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	t := c.Target
	if t.ActionPoints < 1 || t.ActionPoints > arc.MaxActionPoints {
		return &ValidationError{Path: "target.action_points", Value: t.ActionPoints,
			Message: "must be between 1 and 8"}
	}
	if d, err := time.ParseDuration(t.SettleDelay); err != nil || d < 0 {
		return &ValidationError{Path: "target.settle_delay", Value: t.SettleDelay,
			Message: "must be a non-negative duration"}
	}
	if _, ok := parseByteOrder(t.ByteOrder); !ok {
		return &ValidationError{Path: "target.byte_order", Value: t.ByteOrder,
			Message: `must be "little" or "big"`}
	}
	if t.MemorySize == 0 {
		return &ValidationError{Path: "target.memory_size", Value: t.MemorySize,
			Message: "must be positive"}
	}
	memEnd := uint64(t.MemoryBase) + uint64(t.MemorySize)
	if t.WorkAreaSize > 0 && (t.WorkAreaBase < t.MemoryBase || uint64(t.WorkAreaBase)+uint64(t.WorkAreaSize) > memEnd) {
		return &ValidationError{Path: "target.work_area_base", Value: t.WorkAreaBase,
			Message: "work area must lie inside target memory"}
	}
	if t.RunBudget < 0 {
		return &ValidationError{Path: "target.run_budget", Value: t.RunBudget,
			Message: "must not be negative"}
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return &ValidationError{Path: "logging.level", Value: c.Logging.Level,
			Message: "must be debug, info, warn or error"}
	}
	return nil
}

// SettleDelay returns the parsed settle delay. Call Validate first.
func (c *Config) SettleDelay() time.Duration {
	d, _ := time.ParseDuration(c.Target.SettleDelay)
	return d
}

// ByteOrder returns the parsed target byte order. Call Validate first.
func (c *Config) ByteOrder() binary.ByteOrder {
	order, _ := parseByteOrder(c.Target.ByteOrder)
	return order
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

func parseByteOrder(s string) (binary.ByteOrder, bool) {
	switch strings.ToLower(s) {
	case "little", "le", "":
		return binary.LittleEndian, true
	case "big", "be":
		return binary.BigEndian, true
	}
	return binary.LittleEndian, false
}
