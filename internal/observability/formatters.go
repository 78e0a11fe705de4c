// Package observability renders human-readable CLI reports.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/db"
	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/quality"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted report output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintEstimate outputs per-section line estimates and budget overruns
func (p *Printer) PrintEstimate(est estimate.Estimate, target int, overruns []estimate.BudgetOverrun) {
	var sb strings.Builder
	for _, section := range estimate.Sections {
		if lines := est.Lines(section); lines > 0 {
			sb.WriteString(fmt.Sprintf("%-18s %3d\n", section, lines))
		}
	}
	sb.WriteString(fmt.Sprintf("%-18s %3d / %d\n", "total", est.Total, target))
	if over := est.Total - target; over > 0 {
		sb.WriteString(fmt.Sprintf("Overflow: %d lines\n", over))
	} else {
		sb.WriteString("Fits the one-page target\n")
	}

	if len(overruns) > 0 {
		sb.WriteString("\nOver budget:\n")
		for _, o := range overruns {
			sb.WriteString(fmt.Sprintf("  • %s: %d lines (budget %d, +%d)\n", o.Section, o.Estimated, o.Budget, o.Over()))
		}
	}

	p.printBox("LINE ESTIMATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAssessments outputs bullets ranked by impact, weakest issues included
func (p *Printer) PrintAssessments(ranked []quality.RankedBullet, assessments []quality.Assessment) {
	if len(ranked) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Assessed %d bullets:\n\n", len(ranked)))
	for i, r := range ranked {
		sb.WriteString(fmt.Sprintf("#%d  %.1f  %s\n", i+1, r.Score, r.Text))
		if r.Index < len(assessments) {
			for _, issue := range assessments[r.Index].Issues {
				sb.WriteString(fmt.Sprintf("    ⚠ %s\n", issue))
			}
		}
		if i < len(ranked)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("BULLET QUALITY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunReport outputs the outcome of a finished run
func (p *Printer) PrintRunReport(s control.State) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:        %s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Role:       %s\n", s.Role))
	sb.WriteString(fmt.Sprintf("Status:     %s\n", s.Status))
	sb.WriteString(fmt.Sprintf("Iterations: %d / %d\n", s.Iteration, s.MaxIterations))
	sb.WriteString(fmt.Sprintf("Pressure:   %.2f (%s)\n", s.Pressure, s.Tier))
	sb.WriteString(fmt.Sprintf("Escalation: %s\n", s.Level))

	if e := s.Evaluation; e != nil {
		sb.WriteString(fmt.Sprintf("Score:      %d (raw %d, penalty %d)\n", e.AdjustedScore, e.RawScore, e.PagePenalty))
		sb.WriteString(fmt.Sprintf("Pages:      %d\n", e.PageCount))
		sb.WriteString(fmt.Sprintf("Passed:     %t\n", e.Passed))
	}
	if len(s.ScoreHistory) > 0 {
		scores := make([]string, len(s.ScoreHistory))
		for i, v := range s.ScoreHistory {
			scores[i] = fmt.Sprint(v)
		}
		sb.WriteString(fmt.Sprintf("History:    %s\n", strings.Join(scores, " → ")))
	}
	if s.Error != "" {
		sb.WriteString(fmt.Sprintf("\nError: %s\n", s.Error))
	}

	if len(s.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		count := min(len(s.Issues), maxItemsToShow)
		for _, issue := range s.Issues[len(s.Issues)-count:] {
			sb.WriteString(fmt.Sprintf("  • %s\n", issue))
		}
		if len(s.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d earlier\n", len(s.Issues)-maxItemsToShow))
		}
	}

	p.printBox("COMPRESSION RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunHistory outputs a stored run and its iterations
func (p *Printer) PrintRunHistory(run *db.Run) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Role:    %s\n", run.Role))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Score:   %d on %d page(s)\n", run.FinalScore, run.PageCount))
	sb.WriteString(fmt.Sprintf("Started: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05")))
	if run.ErrorMessage != nil {
		sb.WriteString(fmt.Sprintf("Error:   %s\n", *run.ErrorMessage))
	}

	if len(run.History) > 0 {
		sb.WriteString("\n #  score  pages  pressure  level  result\n")
		for _, it := range run.History {
			result := "retry"
			switch {
			case it.Passed:
				result = "pass"
			case it.RolledBack:
				result = "rollback"
			}
			sb.WriteString(fmt.Sprintf("%2d  %5d  %5d  %8.2f  %5d  %s\n",
				it.Iteration, it.AdjustedScore, it.PageCount, it.Pressure, it.EscalationLevel, result))
		}
	}

	p.printBox("RUN HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}
