// Package validation compiles rendered LaTeX and measures the resulting PDF.
package validation

import (
	"fmt"
	"strings"
)

// UnsafeSourceError is returned for sources that use shell-escape or file I/O
// commands. They are refused before pdflatex runs.
type UnsafeSourceError struct {
	Commands []string
}

func (e *UnsafeSourceError) Error() string {
	return fmt.Sprintf("refusing to compile source with unsafe commands: %s", strings.Join(e.Commands, ", "))
}

// CompilationError represents a failed or timed-out pdflatex run
type CompilationError struct {
	Message   string
	LogOutput string
	TimedOut  bool
	Cause     error
}

func (e *CompilationError) Error() string {
	msg := "LaTeX compilation error: " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if d := e.Diagnostics(); len(d) > 0 {
		msg += " (" + d[0] + ")"
	}
	return msg
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// Diagnostics returns the "!" error lines pdflatex wrote, in order
func (e *CompilationError) Diagnostics() []string {
	var out []string
	for _, line := range strings.Split(e.LogOutput, "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "!") {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(line, "!")))
		}
	}
	return out
}

// PageCountError means no tool could read the page count of a PDF
type PageCountError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PageCountError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("page count error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("page count error: %s: %s", e.Path, e.Message)
}

func (e *PageCountError) Unwrap() error {
	return e.Cause
}
