package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/db"
	"github.com/jonathan/resume-compressor/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored compression runs",
	Long:  "Lists recent runs, or shows one run with its iterations when --run-id is given. Requires PostgreSQL.",
	RunE:  runHistory,
}

var (
	historyRunID       string
	historyLimit       int
	historyDatabaseURL string
)

func init() {
	historyCmd.Flags().StringVar(&historyRunID, "run-id", "", "Run ID to show")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of recent runs to list")
	historyCmd.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}

	var id uuid.UUID
	if historyRunID != "" {
		if id, err = uuid.Parse(historyRunID); err != nil {
			return fmt.Errorf("invalid run ID %q: %w", historyRunID, err)
		}
	}
	if historyLimit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", historyLimit)
	}

	url := cfg.Database.URL
	if historyDatabaseURL != "" {
		url = historyDatabaseURL
	}
	if url == "" {
		return fmt.Errorf("database URL not set (set DATABASE_URL or use --db-url)")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if historyRunID != "" {
		run, err := database.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", id)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintRunHistory(run)
		return nil
	}

	runs, err := database.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tROLE\tSTATUS\tSCORE\tPAGES\tITERATIONS")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Role, r.Status, r.FinalScore, r.PageCount, r.Iterations)
	}
	return w.Flush()
}
