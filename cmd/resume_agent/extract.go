package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured resume JSON from plain text",
	Long:  "Uses the lite model tier to turn a plain-text resume into resume JSON accepted by compress. Requires GEMINI_API_KEY.",
	RunE:  runExtract,
}

var (
	extractInput  string
	extractOutput string
)

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "in", "i", "", "Path to a plain-text resume (- for stdin)")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Output JSON path (defaults to stdout)")
	mustMarkRequired(extractCmd, "in")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.LLM.APIKey == "" {
		return errors.New("extraction requires a model API key (set GEMINI_API_KEY)")
	}

	text, err := readInput(cmd, extractInput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, cmd, cfg, logger, false, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	extractor := p.Extractor()
	if extractor == nil {
		return errors.New("extraction requires a model client")
	}
	result, err := extractor.Extract(ctx, string(text))
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Field, w.Message)
	}

	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}

	if extractOutput == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(extractOutput), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(extractOutput, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", extractOutput, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", extractOutput)
	return nil
}
