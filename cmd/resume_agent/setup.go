package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/config"
	"github.com/jonathan/resume-compressor/internal/logging"
	"github.com/jonathan/resume-compressor/internal/metrics"
	"github.com/jonathan/resume-compressor/internal/pipeline"
)

// loadConfig resolves the layered configuration and the logger built from it
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadConfigOnly is loadConfig for commands that never log
func loadConfigOnly() (*config.Config, error) {
	return config.Load(configPath)
}

// newPipeline builds a pipeline that reports progress on the command's stderr
func newPipeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, noLLM bool, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	errOut := cmd.ErrOrStderr()
	p, err := pipeline.New(ctx, pipeline.Options{
		Config:       cfg,
		Logger:       logger,
		NoLLM:        noLLM,
		TemplatePath: templatePath,
		Metrics:      m,
		OnProgress: func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(errOut, "[%s] %s\n", e.Step, e.Message)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up pipeline: %w", err)
	}
	return p, nil
}

// printWarnings lists input coercions on stderr
func printWarnings(cmd *cobra.Command, source string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d warning(s)\n  %s\n", source, len(warnings), strings.Join(warnings, "\n  "))
}

func mustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
	}
}

// readInput reads path, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
