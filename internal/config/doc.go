// Package config loads the arcdbg session configuration.
//
// A configuration file is TOML or YAML, selected by extension:
//
//	[target]
//	name = "arc700"
//	action_points = 8
//	settle_delay = "1ms"
//	byte_order = "little"
//
//	[logging]
//	level = "info"
//
// Values are applied in order: built-in defaults, the file, then ARCDBG_*
// environment variables. A Watcher reloads the file when it changes.
package config
