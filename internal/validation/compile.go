package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultCompileTimeout bounds one pdflatex run
	DefaultCompileTimeout = 60 * time.Second

	texName = "resume.tex"
	pdfName = "resume.pdf"

	compileDirPattern = "latex-compile-*"
)

// CompilerConfig configures a Compiler
type CompilerConfig struct {
	// Binary defaults to pdflatex
	Binary  string
	Timeout time.Duration
	// WorkDir is the parent of the per-call directories; empty uses the OS temp dir
	WorkDir string
	// KeepArtifacts leaves .aux and .log files next to the PDF
	KeepArtifacts bool
}

// Compiler turns LaTeX source into a PDF with pdflatex. Every call gets its
// own directory, so concurrent runs never share files.
type Compiler struct {
	cfg    CompilerConfig
	logger *zap.Logger
}

// NewCompiler creates a Compiler
func NewCompiler(cfg CompilerConfig, logger *zap.Logger) *Compiler {
	if cfg.Binary == "" {
		cfg.Binary = "pdflatex"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCompileTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{cfg: cfg, logger: logger}
}

// Compile writes source to a fresh directory and runs pdflatex on it. It
// returns the PDF path. Sources containing shell-escape or file I/O commands
// are refused before pdflatex runs.
func (c *Compiler) Compile(ctx context.Context, source string) (string, error) {
	if found := FindDangerousCommands(source); len(found) > 0 {
		return "", &UnsafeSourceError{Commands: found}
	}
	if _, err := exec.LookPath(c.cfg.Binary); err != nil {
		return "", &CompilationError{
			Message: fmt.Sprintf("%s not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)", c.cfg.Binary),
			Cause:   err,
		}
	}

	if c.cfg.WorkDir != "" {
		if err := os.MkdirAll(c.cfg.WorkDir, 0o755); err != nil {
			return "", &CompilationError{
				Message: fmt.Sprintf("failed to create working directory: %s", c.cfg.WorkDir),
				Cause:   err,
			}
		}
	}
	dir, err := os.MkdirTemp(c.cfg.WorkDir, compileDirPattern)
	if err != nil {
		return "", &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	pdfPath, err := c.run(ctx, dir, source)
	if err != nil {
		if !c.cfg.KeepArtifacts {
			_ = os.RemoveAll(dir)
		}
		return "", err
	}
	return pdfPath, nil
}

func (c *Compiler) run(ctx context.Context, dir, source string) (string, error) {
	texPath := filepath.Join(dir, texName)
	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return "", &CompilationError{
			Message: fmt.Sprintf("failed to write LaTeX file to working directory: %s", dir),
			Cause:   err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	// nonstopmode keeps pdflatex from waiting on stdin after an error
	cmd := exec.CommandContext(ctx, c.cfg.Binary, "-interaction=nonstopmode", "-halt-on-error", "-no-shell-escape", "-output-directory", dir, texPath)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	logOutput := output.String()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &CompilationError{
			Message:   fmt.Sprintf("LaTeX compilation timed out after %s", c.cfg.Timeout),
			LogOutput: logOutput,
			TimedOut:  true,
			Cause:     ctx.Err(),
		}
	}

	pdfPath := filepath.Join(dir, pdfName)
	if _, err := os.Stat(pdfPath); err != nil {
		return "", &CompilationError{
			Message:   "LaTeX compilation failed: PDF was not generated",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}
	if runErr != nil {
		// pdflatex often exits non-zero on recoverable errors and still emits a PDF
		c.logger.Warn("LaTeX compilation completed with errors",
			zap.String("pdf", pdfPath),
			zap.Error(runErr))
	}

	if !c.cfg.KeepArtifacts {
		CleanupArtifacts(dir)
	}
	c.logger.Debug("compiled LaTeX",
		zap.String("pdf", pdfPath),
		zap.Duration("elapsed", time.Since(start)))
	return pdfPath, nil
}

// Discard removes the directory Compile created for pdfPath. Paths Compile
// did not produce are refused. With KeepArtifacts set it does nothing.
func (c *Compiler) Discard(pdfPath string) error {
	if c.cfg.KeepArtifacts {
		return nil
	}
	dir := filepath.Dir(pdfPath)
	if filepath.Base(pdfPath) != pdfName || !strings.HasPrefix(filepath.Base(dir), strings.TrimSuffix(compileDirPattern, "*")) {
		return fmt.Errorf("refusing to discard %s: not a compiled artifact", pdfPath)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to discard %s: %w", dir, err)
	}
	return nil
}

// CleanupArtifacts removes LaTeX auxiliary files from dir, leaving the .tex and .pdf
func CleanupArtifacts(dir string) {
	if dir == "" {
		return
	}
	base := strings.TrimSuffix(texName, ".tex")
	for _, ext := range []string{".aux", ".log", ".out", ".toc", ".lof", ".lot"} {
		_ = os.Remove(filepath.Join(dir, base+ext))
	}
}
