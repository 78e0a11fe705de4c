package validation

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// PageCounter counts PDF pages with pdfinfo, falling back to ghostscript
type PageCounter struct{}

// NewPageCounter creates a PageCounter
func NewPageCounter() *PageCounter {
	return &PageCounter{}
}

// CountPages returns the number of pages in the PDF at path
func (p *PageCounter) CountPages(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &PageCountError{Path: path, Message: "PDF not readable", Cause: err}
	}

	if count, err := countWithPdfinfo(ctx, path); err == nil {
		return count, nil
	}
	if count, err := countWithGhostscript(ctx, path); err == nil {
		return count, nil
	}

	return 0, &PageCountError{
		Path:    path,
		Message: "neither pdfinfo nor ghostscript could read it. Please install poppler-utils (pdfinfo) or ghostscript",
	}
}

func countWithPdfinfo(ctx context.Context, path string) (int, error) {
	output, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo command failed: %w", err)
	}
	return ParsePdfinfo(string(output))
}

// ParsePdfinfo extracts the "Pages: N" value from pdfinfo output
func ParsePdfinfo(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			break
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("bad page count %q: %w", parts[1], err)
		}
		return count, nil
	}
	return 0, fmt.Errorf("could not parse page count from pdfinfo output")
}

// ghostscriptArgs keeps gs sandboxed and grants read access to path alone
func ghostscriptArgs(path string) []string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(path)
	return []string{
		"-q", "-dNODISPLAY", "-dSAFER",
		"--permit-file-read=" + path,
		"-c", fmt.Sprintf("(%s) (r) file runpdfbegin pdfpagecount = quit", escaped),
	}
}

func countWithGhostscript(ctx context.Context, path string) (int, error) {
	output, err := exec.CommandContext(ctx, "gs", ghostscriptArgs(path)...).Output()
	if err != nil {
		return 0, fmt.Errorf("ghostscript command failed: %w", err)
	}

	out := strings.TrimSpace(string(output))
	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("could not parse page count from ghostscript output: %s", out)
	}
	return count, nil
}
