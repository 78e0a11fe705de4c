package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/pipeline"
	"github.com/jonathan/resume-compressor/internal/planning"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the compression directive and structural plan for a resume",
	Long: `Prints, as JSON, the tier chosen for --pressure, the directive handed to the
compressor and the structural reduction plan at --level. Nothing is modified.`,
	RunE: runPlan,
}

var (
	planInput    string
	planLevel    string
	planPressure float64
)

func init() {
	planCmd.Flags().StringVarP(&planInput, "in", "i", "", "Path to resume JSON (- for stdin)")
	planCmd.Flags().StringVar(&planLevel, "level", planning.LevelRewrite.String(), "Escalation level name or number (rewrite, reduce_bullets, reduce_items, trim_sections)")
	planCmd.Flags().Float64Var(&planPressure, "pressure", -1, "Page pressure in [0,1] (defaults to the configured initial pressure)")
	mustMarkRequired(planCmd, "in")

	rootCmd.AddCommand(planCmd)
}

// planOutput is the JSON printed by plan
type planOutput struct {
	Tier      planning.Tier      `json:"tier"`
	Level     string             `json:"level"`
	Directive planning.Directive `json:"directive"`
	Plan      planning.Plan      `json:"plan"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}

	level, err := parseLevel(planLevel)
	if err != nil {
		return err
	}
	pressure := planPressure
	if !cmd.Flags().Changed("pressure") {
		pressure = cfg.Control.InitialPressure
	}
	if pressure < 0 || pressure > 1 {
		return fmt.Errorf("pressure must be between 0 and 1, got %g", pressure)
	}

	raw, err := readInput(cmd, planInput)
	if err != nil {
		return err
	}
	loaded, err := pipeline.LoadResume(raw, false)
	if err != nil {
		return err
	}
	printWarnings(cmd, planInput, loaded.Warnings)

	planner := planning.NewPlanner(estimate.New(pipeline.EstimatorConfig(cfg.Estimator)), planning.DefaultEscalationTable())
	directive := planning.NewDirective(pressure, level, planning.DefaultTierTable())

	out, err := json.MarshalIndent(planOutput{
		Tier:      directive.Tier,
		Level:     level.String(),
		Directive: directive,
		Plan:      planner.StructuralPlan(loaded.Data, level),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// parseLevel accepts a level name or its number
func parseLevel(s string) (planning.Level, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(planning.LevelRewrite) || n > int(planning.MaxLevel) {
			return 0, fmt.Errorf("level must be between %d and %d, got %d", planning.LevelRewrite, planning.MaxLevel, n)
		}
		return planning.Level(n), nil
	}
	for l := planning.LevelRewrite; l <= planning.MaxLevel; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown escalation level %q", s)
}
