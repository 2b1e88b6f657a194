package config

import (
	"os"
	"strconv"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCDBG_"

// envSetter applies one environment variable.
type envSetter func(cfg *Config, value string) error

// envMapping maps environment variables to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "LOG_LEVEL": func(cfg *Config, v string) error {
		cfg.Logging.Level = v
		return nil
	},
	EnvPrefix + "ACTION_POINTS": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Path: "target.action_points", Value: v, Message: "not an integer"}
		}
		cfg.Target.ActionPoints = n
		return nil
	},
	EnvPrefix + "SETTLE_DELAY": func(cfg *Config, v string) error {
		cfg.Target.SettleDelay = v
		return nil
	},
	EnvPrefix + "BYTE_ORDER": func(cfg *Config, v string) error {
		cfg.Target.ByteOrder = v
		return nil
	},
	EnvPrefix + "SCRIPT": func(cfg *Config, v string) error {
		cfg.Script.Path = v
		return nil
	},
}

// ApplyEnv overrides cfg from the environment. A nil lookup uses
// os.LookupEnv. Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for name, set := range envMapping {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return err
		}
	}
	return nil
}
