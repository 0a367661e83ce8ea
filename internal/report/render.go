package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/ppiankov/deepresearch/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// RenderMarkdown renders markdown for terminal display. On failure the raw
// markdown is returned with the error.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}

// PrintSummary writes the run statistics between banners
func PrintSummary(w io.Writer, r model.Result) {
	_, _ = fmt.Fprintln(w, banner)
	_, _ = fmt.Fprintf(w, "  Research: %s\n", r.Query)
	_, _ = fmt.Fprintln(w, banner)
	_, _ = fmt.Fprintf(w, "  Depth / breadth:   %d / %d", r.Depth, r.Breadth)
	if r.AutoTuned {
		_, _ = fmt.Fprint(w, " (auto-tuned)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  Queries:           %d/%d completed\n", r.Progress.CompletedQueries, r.Progress.TotalQueries)
	_, _ = fmt.Fprintf(w, "  Learnings:         %d\n", len(r.Learnings))
	_, _ = fmt.Fprintf(w, "  Sources:           %d\n", len(r.VisitedURLs))
	_, _ = fmt.Fprintf(w, "  Contradictions:    %d\n", len(r.Contradictions))
	_, _ = fmt.Fprintf(w, "  Reasoning steps:   %d\n", len(r.ChainOfThought))
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "  Duration:          %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	_, _ = fmt.Fprintln(w, banner)
}
