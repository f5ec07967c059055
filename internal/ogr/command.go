// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import (
	"slices"
	"strings"
)

// Command is a fully formed conversion tool invocation.
type Command struct {
	// Path is the executable, looked up in PATH when not absolute.
	Path string

	// Args excludes Path.
	Args []string

	// redactions maps argument positions to their log form.
	redactions map[int]string
}

// Argv returns the full argument vector including the executable.
func (c *Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Has reports whether flag appears as an argument.
func (c *Command) Has(flag string) bool {
	return slices.Contains(c.Args, flag)
}

// Values returns every argument following an occurrence of flag.
func (c *Command) Values(flag string) []string {
	var out []string
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == flag {
			out = append(out, c.Args[i+1])
		}
	}
	return out
}

// Config returns the value of a "--config KEY VALUE" option.
func (c *Command) Config(key string) (string, bool) {
	for i := 0; i < len(c.Args)-2; i++ {
		if c.Args[i] == "--config" && c.Args[i+1] == key {
			return c.Args[i+2], true
		}
	}
	return "", false
}

func (c *Command) add(args ...string) {
	c.Args = append(c.Args, args...)
}

func (c *Command) addRedacted(arg, logForm string) {
	if c.redactions == nil {
		c.redactions = make(map[int]string)
	}
	c.redactions[len(c.Args)] = logForm
	c.Args = append(c.Args, arg)
}

// String renders the command as a shell-quoted line with secrets masked.
// It is meant for logs only; commands are never run through a shell.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, shellQuote(c.Path))
	for i, a := range c.Args {
		if r, ok := c.redactions[i]; ok {
			a = r
		}
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_./=:,+@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
