package poml

import (
	"fmt"
	"io"
)

// ErrorKind classifies a CompileError into three kinds: ReadError,
// WriteError, or SystemError.
type ErrorKind string

const (
	// KindRead covers structural, template, or resolution problems
	// encountered while reading: the offending subtree is recovered by
	// substituting an empty fragment.
	KindRead ErrorKind = "read_error"
	// KindWrite covers writer-level inconsistencies (e.g. <item> outside
	// <list>, unsupported tag in a CSV context): recovered by emitting
	// nothing for that subtree.
	KindWrite ErrorKind = "write_error"
	// KindSystem covers invariant violations that should not happen; it
	// is surfaced as-is, and the compile returns whatever partial output
	// it produced.
	KindSystem ErrorKind = "system_error"
)

// CompileError is a structured error with byte-range position information,
// carrying one of the three ErrorKind values above.
type CompileError struct {
	Kind       ErrorKind
	Message    string
	SourcePath string
	Span       Span
	Pos        Position
	Context    string // optional hint, e.g. the offending tag or attribute name
	Cause      error
}

func (e *CompileError) Error() string {
	loc := fmt.Sprintf("%s:%d:%d", e.SourcePath, e.Pos.StartLine, e.Pos.StartColumn)
	msg := loc + ": " + e.Message
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Cause }

// String gives a single-line representation: Error() (which already
// includes the cause) followed by the error kind.
func (e *CompileError) String() string {
	s := fmt.Sprintf("%s (kind: %s)", e.Error(), e.Kind)
	return s
}

// NewCompileError builds a CompileError, computing its human Position from
// the given span against source (source may be empty if unavailable, in
// which case Position is left zero).
func NewCompileError(kind ErrorKind, message, sourcePath string, source string, span Span, context string, cause error) *CompileError {
	pos := Position{}
	if source != "" {
		pos = positionFromSpan(source, span)
	}
	return &CompileError{
		Kind:       kind,
		Message:    message,
		SourcePath: sourcePath,
		Span:       span,
		Pos:        pos,
		Context:    context,
		Cause:      cause,
	}
}

// AddError records a non-fatal compile error and returns it so callers can
// chain additional context (e.g. into a trace map).
func (c *Compilation) AddError(kind ErrorKind, message string, span Span, context string, cause error) *CompileError {
	err := NewCompileError(kind, message, c.SourcePath, c.Source, span, context, cause)
	c.Errors = append(c.Errors, err)
	return err
}

// HasErrors reports whether any error was recorded.
func (c *Compilation) HasErrors() bool { return len(c.Errors) > 0 }

// FirstError returns the first recorded error, or nil.
func (c *Compilation) FirstError() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

// WriteErrors writes all compile errors to w, one per line.
func (c *Compilation) WriteErrors(w io.Writer) error {
	for _, err := range c.Errors {
		if _, writeErr := fmt.Fprintln(w, err.Error()); writeErr != nil {
			return writeErr
		}
	}
	return nil
}

// ErrorsByKind filters the recorded errors by kind.
func (c *Compilation) ErrorsByKind(kind ErrorKind) []*CompileError {
	out := make([]*CompileError, 0)
	for _, e := range c.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
