// Package report turns a research result into the final report, the reasoning
// summary and the deterministic sections written alongside them.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/llm"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/prompts"
)

const (
	learningsTokenBudget = 180_000
	topEvaluations       = 3
	justificationRunes   = 100
)

// Generator produces structured LLM output
type Generator interface {
	Generate(ctx context.Context, req llm.Request, out any) error
}

type finalReport struct {
	Markdown string `json:"markdown" description:"Final report on the topic in Markdown."`
}

type chainOfThoughtSummary struct {
	Summary string `json:"summary" description:"Detailed chain-of-thought markdown-formatted summary explaining the reasoning steps."`
}

// Writer produces the LLM-written reports
type Writer struct {
	gen     Generator
	model   string
	prompts *prompts.Builder
	logger  *zap.Logger
}

// NewWriter creates a report writer. A nil logger is replaced with a no-op logger.
func NewWriter(gen Generator, modelName string, builder *prompts.Builder, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{gen: gen, model: modelName, prompts: builder, logger: logger}
}

// FinalReport writes the markdown report for r. Generation failures are
// returned as the report text, never as an error.
func (w *Writer) FinalReport(ctx context.Context, r model.Result) string {
	prompt := w.prompts.FinalReport(prompts.FinalReportInput{
		Query:          r.Query,
		Learnings:      FormatLearnings(r.Learnings),
		InformationMap: FormatInformationMap(r.InformationMap),
		Contradictions: FormatContradictions(r.Contradictions),
		Evaluations:    FormatEvaluations(r.SourceEvaluations),
	})

	var out finalReport
	err := w.gen.Generate(ctx, llm.Request{
		Step:   "final_report",
		Model:  w.model,
		System: w.prompts.System(),
		Prompt: prompt,
	}, &out)
	if err != nil {
		w.logger.Error("final report generation failed", zap.Error(err))
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return out.Markdown
}

// ChainOfThoughtReport summarizes the reasoning log
func (w *Writer) ChainOfThoughtReport(ctx context.Context, thoughts []string) string {
	var out chainOfThoughtSummary
	err := w.gen.Generate(ctx, llm.Request{
		Step:   "chain_of_thought",
		Model:  w.model,
		System: prompts.ChainOfThoughtSystem,
		Prompt: w.prompts.ChainOfThought(strings.Join(thoughts, "\n")),
	}, &out)
	if err != nil {
		w.logger.Error("chain of thought report generation failed", zap.Error(err))
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return out.Summary
}

// FormatLearnings wraps each learning in a <learning> block, trimmed to the report budget
func FormatLearnings(learnings []string) string {
	blocks := make([]string, len(learnings))
	for i, l := range learnings {
		blocks[i] = "<learning>\n" + l + "\n</learning>"
	}
	return llm.TrimPrompt(strings.Join(blocks, "\n"), learningsTokenBudget)
}

// FormatInformationMap renders the topics in name order; empty lists are omitted
func FormatInformationMap(info map[string]model.InformationEntry) string {
	if len(info) == 0 {
		return ""
	}
	topics := make([]string, 0, len(info))
	for t := range info {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	sections := make([]string, 0, len(topics))
	for _, t := range topics {
		entry := info[t]
		var b strings.Builder
		fmt.Fprintf(&b, "<topic>%s</topic>\n", t)
		writeList(&b, "consensus", entry.Consensus)
		writeList(&b, "contradictions", entry.Contradictions)
		writeList(&b, "gaps", entry.Gaps)
		sections = append(sections, b.String())
	}
	return "\n**Information Map:**\n" + strings.Join(sections, "\n")
}

func writeList(b *strings.Builder, tag string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "<%s>\n", tag)
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + item)
	}
	fmt.Fprintf(b, "\n</%s>\n", tag)
}

// FormatContradictions numbers the contradictions for the report prompt
func FormatContradictions(cs []model.Contradiction) string {
	if len(cs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n**Detected Contradictions:**\n<contradictions>\n")
	for i, c := range cs {
		fmt.Fprintf(&b, "%d. Topic: %s\n", i+1, c.Topic)
		fmt.Fprintf(&b, "   Claim 1: %s\n", c.Claim1)
		fmt.Fprintf(&b, "   Claim 2: %s\n", c.Claim2)
		if c.Source1 != "" || c.Source2 != "" {
			fmt.Fprintf(&b, "   Sources: %s vs %s\n", c.Source1, c.Source2)
		}
		b.WriteString("\n")
	}
	b.WriteString("</contradictions>\n")
	return b.String()
}

// FormatEvaluations lists up to three high and three low credibility sources
func FormatEvaluations(evals []model.SourceEvaluation) string {
	if len(evals) == 0 {
		return ""
	}
	var high, low []model.SourceEvaluation
	for _, e := range evals {
		switch e.CredibilityRating {
		case model.RatingHigh:
			high = append(high, e)
		case model.RatingLow:
			low = append(low, e)
		}
	}

	var b strings.Builder
	b.WriteString("\n**Source Evaluations:**\n<evaluations>\n")
	if len(high) > 0 {
		b.WriteString("High Credibility Sources:\n")
		writeEvaluations(&b, high)
	}
	if len(low) > 0 {
		b.WriteString("\nLow Credibility Sources (used with caution):\n")
		writeEvaluations(&b, low)
	}
	b.WriteString("</evaluations>\n")
	return b.String()
}

func writeEvaluations(b *strings.Builder, evals []model.SourceEvaluation) {
	if len(evals) > topEvaluations {
		evals = evals[:topEvaluations]
	}
	for _, e := range evals {
		name := e.Title
		if name == "" {
			name = e.URL
		}
		justification := []rune(e.Justification)
		if len(justification) > justificationRunes {
			justification = justification[:justificationRunes]
		}
		fmt.Fprintf(b, "- %s: %s...\n", name, string(justification))
	}
}
