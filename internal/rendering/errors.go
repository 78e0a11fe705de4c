package rendering

import (
	"fmt"

	"github.com/jonathan/resume-compressor/internal/planning"
)

// TemplateError is a template that could not be loaded, parsed or executed.
// Template is the file path, or "resume" for the built-in template.
type TemplateError struct {
	Template string
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template %s: %s: %v", e.Template, e.Message, e.Cause)
	}
	return fmt.Sprintf("template %s: %s", e.Template, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError is resume data that could not be laid out for a directive
type RenderError struct {
	Tier    planning.Tier
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error at %s tier: %s: %v", e.Tier, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error at %s tier: %s", e.Tier, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
