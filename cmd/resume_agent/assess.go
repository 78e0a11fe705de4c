package main

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/observability"
	"github.com/jonathan/resume-compressor/internal/quality"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score and rank bullets by impact",
	Long:  "Reads one bullet per line and prints them ranked by impact score with the issues found in each.",
	RunE:  runAssess,
}

var assessInput string

func init() {
	assessCmd.Flags().StringVarP(&assessInput, "in", "i", "", "Path to a text file with one bullet per line (- for stdin)")
	mustMarkRequired(assessCmd, "in")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	raw, err := readInput(cmd, assessInput)
	if err != nil {
		return err
	}
	bullets := readBullets(raw)
	if len(bullets) == 0 {
		return fmt.Errorf("no bullets found in %s", assessInput)
	}

	assessor := quality.NewAssessor(quality.DefaultRules())
	assessments := make([]quality.Assessment, len(bullets))
	for i, b := range bullets {
		assessments[i] = assessor.Assess(b)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintAssessments(assessor.Rank(bullets), assessments)
	return nil
}

// readBullets splits text into bullets, dropping blank lines and list markers
func readBullets(raw []byte) []string {
	var bullets []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	return bullets
}
