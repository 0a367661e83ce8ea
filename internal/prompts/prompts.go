// Package prompts renders every LLM prompt used during a research run.
// Domain guidance lives in domains.yaml; prompt bodies live in templates/.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/deepresearch/internal/model"
)

// DefaultDomain is used when no domain is configured
const DefaultDomain = "finance"

// ChainOfThoughtSystem is the system prompt for the reasoning summary
const ChainOfThoughtSystem = "You are an expert Chain of Thought analyst"

//go:embed domains.yaml
var domainsYAML []byte

//go:embed templates/*.tmpl
var templateFS embed.FS

type adaptation struct {
	Analysis []string `yaml:"analysis"`
	Report   []string `yaml:"report"`
}

var (
	domains   map[string]adaptation
	templates *template.Template
)

func init() {
	if err := yaml.Unmarshal(domainsYAML, &domains); err != nil {
		panic(fmt.Sprintf("prompts: parse domains.yaml: %v", err))
	}
	templates = template.Must(template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl"))
}

// Domains lists the supported domain names
func Domains() []string {
	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder renders prompts for one domain
type Builder struct {
	domain string
	adapt  adaptation
	now    func() time.Time
}

// New returns a builder for domain ("" selects finance)
func New(domain string) (*Builder, error) {
	name := strings.ToLower(strings.TrimSpace(domain))
	if name == "" {
		name = DefaultDomain
	}
	adapt, ok := domains[name]
	if !ok {
		return nil, &model.ConfigurationError{
			Field:  "research.domain",
			Reason: fmt.Sprintf("unknown domain %q (supported: %s)", domain, strings.Join(Domains(), ", ")),
		}
	}
	return &Builder{domain: name, adapt: adapt, now: time.Now}, nil
}

// SetClock replaces time.Now for deterministic prompts
func (b *Builder) SetClock(now func() time.Time) {
	if now != nil {
		b.now = now
	}
}

// Domain returns the selected domain
func (b *Builder) Domain() string { return b.domain }

func (b *Builder) title() string {
	return strings.ToUpper(b.domain[:1]) + b.domain[1:]
}

func (b *Builder) date() string {
	return b.now().Format("2006-01-02")
}

// System is the analyst system prompt with the domain's analysis guidance
func (b *Builder) System() string {
	return render("system.tmpl", map[string]any{
		"Now":      b.now().Format(time.RFC3339),
		"Title":    b.title(),
		"Analysis": b.adapt.Analysis,
	})
}

// SerpQueries asks for at most n sub-queries, steered by what is already known
func (b *Builder) SerpQueries(query string, n int, learnings []string) string {
	return render("serp_queries.tmpl", map[string]any{
		"Query":     query,
		"Count":     n,
		"Learnings": learnings,
	})
}

// SearchEngineQueries asks for the literal search strings behind one query
func (b *Builder) SearchEngineQueries(prompt string) string {
	return render("search_engine_queries.tmpl", map[string]any{"Prompt": prompt})
}

// SourceEvaluation asks for credibility and relevance ratings of the formatted sources
func (b *Builder) SourceEvaluation(sources string) string {
	return render("source_evaluation.tmpl", map[string]any{"Sources": sources})
}

// Extraction asks for up to n learnings and follow-up questions from the gathered contents
func (b *Builder) Extraction(query, contents string, n int, validation string) string {
	return render("extraction.tmpl", map[string]any{
		"Query":      query,
		"Contents":   contents,
		"Count":      n,
		"Date":       b.date(),
		"Validation": validation,
	})
}

// ChainOfThought asks for a narrative of the reasoning log
func (b *Builder) ChainOfThought(thoughts string) string {
	return render("chain_of_thought.tmpl", map[string]any{"Thoughts": thoughts})
}

// FinalReportInput carries the pre-formatted blocks of the final report prompt
type FinalReportInput struct {
	Query          string
	Learnings      string
	InformationMap string
	Contradictions string
	Evaluations    string
}

// FinalReport asks for the markdown report with the domain's report requirements
func (b *Builder) FinalReport(in FinalReportInput) string {
	return render("final_report.tmpl", map[string]any{
		"Date":           b.date(),
		"Title":          b.title(),
		"Report":         b.adapt.Report,
		"Query":          in.Query,
		"Learnings":      in.Learnings,
		"InformationMap": in.InformationMap,
		"Contradictions": in.Contradictions,
		"Evaluations":    in.Evaluations,
	})
}

func render(name string, data any) string {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		panic(fmt.Sprintf("prompts: render %s: %v", name, err))
	}
	return sb.String()
}
