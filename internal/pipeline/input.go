package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/resume-compressor/internal/normalize"
	"github.com/jonathan/resume-compressor/internal/schemas"
	"github.com/jonathan/resume-compressor/internal/types"
	embedded "github.com/jonathan/resume-compressor/schemas"
)

// Loaded is a resume ready for a run
type Loaded struct {
	Data types.ResumeData
	// Warnings lists schema violations and lossy coercions, in that order
	Warnings []string
}

// LoadResume parses a resume document. The document is checked against the
// resume schema first. In strict mode a violation is an error; otherwise
// violations become warnings and the normalizer coerces what it can.
func LoadResume(raw []byte, strict bool) (*Loaded, error) {
	loaded := &Loaded{}

	if err := schemas.ValidateDocument(embedded.ResumeData, raw); err != nil {
		var ve *schemas.ValidationError
		if strict || !errors.As(err, &ve) {
			return nil, fmt.Errorf("resume failed schema validation: %w", err)
		}
		loaded.Warnings = append(loaded.Warnings, ve.Messages()...)
	}

	result, err := normalize.Normalize(raw)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		loaded.Warnings = append(loaded.Warnings, w.Error())
	}
	loaded.Data = result.Data
	return loaded, nil
}

// LoadResumeFile reads and loads a resume document from path
func LoadResumeFile(path string, strict bool) (*Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume %s: %w", path, err)
	}
	loaded, err := LoadResume(raw, strict)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loaded, nil
}
