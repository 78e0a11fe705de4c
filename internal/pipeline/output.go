package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/schemas"
	embedded "github.com/jonathan/resume-compressor/schemas"
)

// Output file names
const (
	TexFile    = "resume.tex"
	PDFFile    = "resume.pdf"
	ReportFile = "report.json"
)

// WriteArtifacts writes the final source, a copy of the compiled PDF and the
// run report into dir. The report's artifact path is rewritten to the copy.
// It returns the paths written.
func WriteArtifacts(dir string, s control.State) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var written []string
	if s.Source != "" {
		path := filepath.Join(dir, TexFile)
		if err := os.WriteFile(path, []byte(s.Source), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	if s.ArtifactPath != "" {
		path := filepath.Join(dir, PDFFile)
		if err := copyFile(s.ArtifactPath, path); err != nil {
			return written, fmt.Errorf("failed to copy compiled PDF: %w", err)
		}
		s.ArtifactPath = path
		written = append(written, path)
	}

	report, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return written, fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := schemas.ValidateDocument(embedded.RunReport, report); err != nil {
		return written, fmt.Errorf("run report failed schema validation: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, report, 0o644); err != nil {
		return written, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return append(written, path), nil
}

func copyFile(src, dst string) error {
	if src == dst {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
