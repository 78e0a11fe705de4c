package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/observability"
	"github.com/jonathan/resume-compressor/internal/pipeline"
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress a resume to one page",
	Long: `Renders the resume, compiles it with pdflatex and iterates compression until the
PDF is one page and the review score passes, or the iteration budget runs out.

Writes resume.tex, resume.pdf and report.json to --out.`,
	RunE: runCompress,
}

var (
	compressInput         string
	compressRole          string
	compressOut           string
	compressMaxIterations int
	compressNoLLM         bool
	compressStrict        bool
)

func init() {
	compressCmd.Flags().StringVarP(&compressInput, "in", "i", "", "Path to resume JSON (- for stdin)")
	compressCmd.Flags().StringVarP(&compressRole, "role", "r", "", "Target role used to prioritize content")
	compressCmd.Flags().StringVarP(&compressOut, "out", "o", "output", "Output directory")
	compressCmd.Flags().IntVar(&compressMaxIterations, "max-iterations", 0, "Override the configured iteration budget")
	compressCmd.Flags().BoolVar(&compressNoLLM, "no-llm", false, "Use rule-based review and skip model rewriting")
	compressCmd.Flags().BoolVar(&compressStrict, "strict", false, "Reject resumes that do not match the resume schema")
	mustMarkRequired(compressCmd, "in")

	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("max-iterations") {
		cfg.Control.MaxIterations = compressMaxIterations
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	raw, err := readInput(cmd, compressInput)
	if err != nil {
		return err
	}
	loaded, err := pipeline.LoadResume(raw, compressStrict)
	if err != nil {
		return err
	}
	printWarnings(cmd, compressInput, loaded.Warnings)

	ctx := context.Background()
	p, err := newPipeline(ctx, cmd, cfg, logger, compressNoLLM, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.Run(ctx, pipeline.Input{
		Name:   compressInput,
		Data:   loaded.Data,
		Role:   compressRole,
		OutDir: compressOut,
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintRunReport(res.State)
	for _, f := range res.Files {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", f)
	}

	if res.State.Status == control.StatusError {
		return fmt.Errorf("compression failed: %s", res.State.Error)
	}
	return nil
}
