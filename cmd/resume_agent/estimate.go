package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/observability"
	"github.com/jonathan/resume-compressor/internal/pipeline"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate rendered lines per section without compiling",
	RunE:  runEstimate,
}

var (
	estimateInput  string
	estimateTarget int
)

func init() {
	estimateCmd.Flags().StringVarP(&estimateInput, "in", "i", "", "Path to resume JSON (- for stdin)")
	estimateCmd.Flags().IntVar(&estimateTarget, "target", 0, "Override the one-page line target")
	mustMarkRequired(estimateCmd, "in")

	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}
	if estimateTarget < 0 {
		return fmt.Errorf("target must be positive, got %d", estimateTarget)
	}

	raw, err := readInput(cmd, estimateInput)
	if err != nil {
		return err
	}
	loaded, err := pipeline.LoadResume(raw, false)
	if err != nil {
		return err
	}
	printWarnings(cmd, estimateInput, loaded.Warnings)

	ecfg := pipeline.EstimatorConfig(cfg.Estimator)
	if estimateTarget > 0 {
		ecfg.TargetTotalLines = estimateTarget
	}
	estimator := estimate.New(ecfg)

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintEstimate(estimator.Estimate(loaded.Data), estimator.TargetTotalLines(), estimator.SectionsOverBudget(loaded.Data))
	return nil
}
