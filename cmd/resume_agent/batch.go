package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-compressor/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch <resume.json>...",
	Short: "Compress several resumes concurrently",
	Long: `Compresses each resume into its own directory under --out, named after the input
file. At most --concurrency runs are in flight.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchRole        string
	batchOut         string
	batchConcurrency int
	batchNoLLM       bool
	batchStrict      bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchRole, "role", "r", "", "Target role used for every resume")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "output", "Output directory")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 2, "Maximum runs in flight")
	batchCmd.Flags().BoolVar(&batchNoLLM, "no-llm", false, "Use rule-based review and skip model rewriting")
	batchCmd.Flags().BoolVar(&batchStrict, "strict", false, "Reject resumes that do not match the resume schema")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchConcurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", batchConcurrency)
	}
	inputs, err := batchInputs(cmd, args)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	p, err := newPipeline(ctx, cmd, cfg, logger, batchNoLLM, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.RunBatch(ctx, inputs, batchConcurrency)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INPUT\tSTATUS\tSCORE\tPAGES\tITERATIONS\tOUTPUT")
	failed := 0
	for i, res := range results {
		if !res.State.Passed() {
			failed++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			res.Name, res.State.Status, res.State.FinalScore(), res.State.PageCount(), res.State.Iteration, inputs[i].OutDir)
	}
	_ = w.Flush()

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d resumes did not pass", failed, len(results))
	}
	return nil
}

// batchInputs loads every file up front so a bad input fails before any run
func batchInputs(cmd *cobra.Command, paths []string) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		loaded, err := pipeline.LoadResumeFile(path, batchStrict)
		if err != nil {
			return nil, err
		}
		printWarnings(cmd, path, loaded.Warnings)

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s and %s would share output directory %q", prev, path, name)
		}
		seen[name] = path

		inputs = append(inputs, pipeline.Input{
			Name:   path,
			Data:   loaded.Data,
			Role:   batchRole,
			OutDir: filepath.Join(batchOut, name),
		})
	}
	return inputs, nil
}
