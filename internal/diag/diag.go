// Package diag collects the error and diagnostic values produced across the
// core: every fallible operation returns data, never a panic, and multiple
// independent failures (a malformed HDL file, a handful of bad manifest
// keys) are gathered into one report instead of stopping at the first one.
package diag

import "fmt"

// Position is a 1-based line/column location within a source file.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Diagnostic is a single reportable problem with an optional file and
// position. Severity distinguishes diagnostics that abort the operation
// that produced them (Error) from ones that are surfaced but do not
// (Warning) — a malformed design unit aborts only that unit, per spec.
type Diagnostic struct {
	Severity Severity
	File     string
	Pos      Position
	Message  string
}

type Severity int

const (
	Warning Severity = iota
	Error
)

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}
	if d.Pos == (Position{}) {
		return fmt.Sprintf("%s: %s", d.File, d.Message)
	}
	return fmt.Sprintf("%s:%s: %s", d.File, d.Pos, d.Message)
}

func (d Diagnostic) Error() string { return d.String() }

// Collector aggregates diagnostics produced while walking a file set or a
// graph. It never short-circuits the caller; the caller decides, after
// collection, whether any Error-severity diagnostic should abort.
type Collector struct {
	items []Diagnostic
}

func (c *Collector) Add(d Diagnostic) {
	c.items = append(c.items, d)
}

func (c *Collector) Addf(file string, pos Position, format string, args ...any) {
	c.Add(Diagnostic{Severity: Error, File: file, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (c *Collector) Warnf(file string, pos Position, format string, args ...any) {
	c.Add(Diagnostic{Severity: Warning, File: file, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// AddErr wraps a plain error as an Error-severity diagnostic scoped to file.
func (c *Collector) AddErr(file string, err error) {
	if err == nil {
		return
	}
	c.Add(Diagnostic{Severity: Error, File: file, Message: err.Error()})
}

func (c *Collector) Diagnostics() []Diagnostic { return c.items }

// HasErrors reports whether any collected diagnostic is Error-severity.
func (c *Collector) HasErrors() bool {
	for _, d := range c.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (c *Collector) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}
