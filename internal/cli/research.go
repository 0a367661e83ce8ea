package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/engine"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/pipeline"
	"github.com/ppiankov/deepresearch/internal/report"
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <question>",
	Short: "Research a question and write a sourced report",
	Long: `Research recursively explores a question:
- Generate search queries for the question
- Search the web and scrape the results
- Evaluate sources and extract learnings
- Follow up on the most promising leads until the depth is spent
- Write the final report, sources and data quality notes

Example:
  deepresearch research "How did Nvidia's data center revenue develop in 2024?"
  deepresearch research "EU battery regulation impact" --depth 3 --breadth 5
  deepresearch research "Acme Corp outlook" --auto-tune --time-budget 10m`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	f := researchCmd.Flags()
	f.Int("breadth", 0, "queries per research level (default 4)")
	f.Int("depth", 0, "levels of follow-up research (default 2)")
	f.Bool("auto-tune", false, "derive breadth and depth from question complexity and adjust them while researching")
	f.Int("max-depth", 5, "upper depth bound for auto-tuning")
	f.Int("max-breadth", 8, "upper breadth bound for auto-tuning")
	f.Duration("time-budget", 0, "time budget for auto-tuning (e.g. 10m)")
	f.String("domain", "finance", "prompt domain")
	f.String("llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	f.String("llm-model", "", "LLM model name")
	f.String("search-provider", "tavily", "search provider (tavily, bing, duckduckgo)")
	f.String("scraper", "http", "scrape provider (http, firecrawl)")
	f.String("output-dir", "research_output", "directory for session reports")
	f.Bool("no-report", false, "do not write report files")
	f.Bool("no-store", false, "do not record the run in the history database")
	f.Bool("no-render", false, "print the final report as raw markdown")

	bind := map[string]string{
		"research.breadth":     "breadth",
		"research.depth":       "depth",
		"research.auto_tune":   "auto-tune",
		"research.max_depth":   "max-depth",
		"research.max_breadth": "max-breadth",
		"research.time_budget": "time-budget",
		"research.domain":      "domain",
		"llm.provider":         "llm-provider",
		"llm.model":            "llm-model",
		"search.provider":      "search-provider",
		"scrape.provider":      "scraper",
		"output.dir":           "output-dir",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("empty research question")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyNegations(cmd, &cfg)

	logger, err := newLogger(verbose, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	printBanner("Deep Research")
	fmt.Fprintf(os.Stderr, "  Question:     %s\n", query)
	if cfg.Research.AutoTune {
		fmt.Fprintf(os.Stderr, "  Auto-tuning:  max depth %d, max breadth %d", cfg.Research.MaxDepth, cfg.Research.MaxBreadth)
		if cfg.Research.TimeBudget > 0 {
			fmt.Fprintf(os.Stderr, ", budget %s", cfg.Research.TimeBudget)
		}
		fmt.Fprintf(os.Stderr, "\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Depth:        %d\n", orDefault(cfg.Research.Depth, engine.DefaultDepth))
		fmt.Fprintf(os.Stderr, "  Breadth:      %d\n", orDefault(cfg.Research.Breadth, engine.DefaultBreadth))
	}
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Search:       %s\n", cfg.Search.Provider)
	fmt.Fprintf(os.Stderr, "\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewPipeline(cfg, logger,
		pipeline.WithEngineOptions(engine.WithProgressObserver(progressPrinter())))
	if err != nil {
		return err
	}
	defer p.Close()

	started := time.Now()
	session, err := p.Run(ctx, query, 0, 0)
	if session == nil {
		return err
	}
	if err != nil && session.Reports.Final == "" {
		return err
	}
	if err != nil {
		logger.Warn("session finished with errors", zap.Error(err))
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	report.PrintSummary(os.Stderr, session.Result)
	fmt.Fprintf(os.Stderr, "  Wall time:         %s\n\n", time.Since(started).Round(time.Second))

	printMarkdown(session.Reports.Final, cfg.Output.RenderTerminal)
	printMarkdown(session.Reports.DataQuality, cfg.Output.RenderTerminal)
	if session.Reports.AutoTuning != "" {
		printMarkdown(session.Reports.AutoTuning, cfg.Output.RenderTerminal)
	}

	if session.Dir != "" {
		fmt.Fprintf(os.Stderr, "✓ Reports saved to %s\n", session.Dir)
	}
	return nil
}

// applyNegations applies the --no-* switches that invert config booleans
func applyNegations(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if v, err := flags.GetBool("no-report"); err == nil && v {
		cfg.Output.WriteReports = false
	}
	if v, err := flags.GetBool("no-store"); err == nil && v {
		cfg.Store.Enabled = false
	}
	if v, err := flags.GetBool("no-render"); err == nil && v {
		cfg.Output.RenderTerminal = false
	}
}

// progressPrinter reports query completion on stderr whenever it changes
func progressPrinter() func(model.ProgressSnapshot) {
	lastCompleted, lastTotal := -1, -1
	return func(s model.ProgressSnapshot) {
		if s.CompletedQueries == lastCompleted && s.TotalQueries == lastTotal {
			return
		}
		lastCompleted, lastTotal = s.CompletedQueries, s.TotalQueries
		fmt.Fprintf(os.Stderr, "⚙️  [%3.0f%%] depth %d/%d, %d/%d queries  %s\n",
			s.CompletionPercentage(), s.CurrentDepth, s.TotalDepth,
			s.CompletedQueries, s.TotalQueries, truncate(s.CurrentQuery, 60))
	}
}

func printMarkdown(content string, render bool) {
	if content == "" {
		return
	}
	if render {
		rendered, err := report.RenderMarkdown(content, 100)
		if err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(content)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
