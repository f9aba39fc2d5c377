// Package diag provides the shared error/formatting utilities used by all
// three translators: a conditional-raise helper and a filename:line prefixed
// error chain built on top of github.com/pkg/errors, so a cause survives
// intact back to the CLI boundary that reports it.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category distinguishes the error classes the toolchain can raise, so
// callers can branch on the kind of failure without parsing message text.
type Category int

const (
	IO Category = iota
	Syntax
	Semantic
	Range
)

func (c Category) String() string {
	switch c {
	case IO:
		return "io"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case Range:
		return "range"
	default:
		return "unknown"
	}
}

// Error wraps a message with its category and, when available, the file and
// line it was raised at.
type Error struct {
	Category Category
	File     string
	Line     int // 0 means "no line available"
	cause    error
}

func (e *Error) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.cause)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.cause)
	}
	return e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }
func (e *Error) Cause() error  { return e.cause }

// Errorf builds a Syntax-category *Error at the given line, with no filename
// (the filename is attached later, at the CLI boundary, via WithFile).
func Errorf(line int, format string, args ...interface{}) error {
	return &Error{Category: Syntax, Line: line, cause: errors.Errorf(format, args...)}
}

// Semanticf builds a Semantic-category *Error at the given line.
func Semanticf(line int, format string, args ...interface{}) error {
	return &Error{Category: Semantic, Line: line, cause: errors.Errorf(format, args...)}
}

// Rangef builds a Range-category *Error at the given line.
func Rangef(line int, format string, args ...interface{}) error {
	return &Error{Category: Range, Line: line, cause: errors.Errorf(format, args...)}
}

// IOErrorf builds an IO-category *Error; IO failures have no meaningful line.
func IOErrorf(format string, args ...interface{}) error {
	return &Error{Category: IO, cause: errors.Errorf(format, args...)}
}

// WithFile attaches (or overwrites) the filename context of err, if err (or
// something it wraps) is a *Error. Non-diag errors pass through wrapped with
// a bare file prefix so every error surfaced at the CLI carries the filename.
func WithFile(file string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		de.File = file
		return de
	}
	return errors.Wrapf(err, "%s", file)
}

// Require raises a Semantic error at line unless cond holds, a conditional
// raise helper for validation code.
func Require(cond bool, line int, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return Semanticf(line, format, args...)
}
