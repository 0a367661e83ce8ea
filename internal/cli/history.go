package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/deepresearch/internal/report"
	"github.com/ppiankov/deepresearch/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past research runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent research runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		runs, err := s.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No research runs recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tDEPTH\tBREADTH\tLEARNINGS\tSOURCES\tCONTRADICTIONS\tQUERY")
		for _, r := range runs {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Depth, r.Breadth,
				r.Learnings, r.Sources, r.Contradictions, truncate(r.Query, 60))
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the learnings and sources of a past run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		r, err := s.Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no run with id %s (see 'deepresearch history list')", args[0])
		}
		if err != nil {
			return err
		}

		report.PrintSummary(os.Stderr, r)

		var b strings.Builder
		b.WriteString("## Learnings\n\n")
		for _, l := range r.Learnings {
			b.WriteString("- " + l + "\n")
		}
		b.WriteString("\n")
		b.WriteString(report.SourcesSection(r.VisitedURLs, r.SourceEvaluations))
		b.WriteString("\n")
		b.WriteString(report.DataQualitySection(r.Contradictions, r.StartedAt))

		printMarkdown(b.String(), true)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list (0 = all)")
}

func openHistory() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Store.Enabled {
		return nil, fmt.Errorf("run history is disabled (store.enabled: false)")
	}
	return store.Open(cfg.Store.Path)
}
