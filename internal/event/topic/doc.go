// Package topic provides hierarchical, dot-separated event topics with
// wildcard matching.
//
// Topics look like "target.halted" or "target.debug.resumed". Patterns may
// use "*" to match exactly one segment and "**" to match zero or more.
package topic
