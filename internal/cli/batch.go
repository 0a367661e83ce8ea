package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/deepresearch/internal/pipeline"
	"github.com/ppiankov/deepresearch/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Research multiple questions from a file in parallel",
	Long: `Batch researches every question of an input file concurrently:
- Read questions from the file (one per line, # starts a comment)
- Run sessions in parallel with a configurable worker count
- Each session writes its own report directory and history entry

Research flags (breadth, depth, providers) come from the config file and
DEEPRESEARCH_* environment variables.

Example:
  deepresearch batch questions.txt
  deepresearch batch questions.txt --concurrency 3 --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent research sessions")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(verbose, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	printBanner("Deep Research Batch")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Fprintf(os.Stderr, "⚙️  Researching with %d workers...\n\n", concurrency)
	outcomes, err := worker.NewBatchProcessor(p, concurrency).ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount, failureCount := 0, 0
	for _, o := range outcomes {
		if o.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", o.Query, o.Error)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d learnings, %d sources, run %s)\n",
			o.Query, len(o.Result.Learnings), len(o.Result.VisitedURLs), o.Result.RunID)
	}

	printBanner("Batch Complete")
	fmt.Fprintf(os.Stderr, "  Total:     %d questions\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d questions failed", failureCount)
	}
	return nil
}
