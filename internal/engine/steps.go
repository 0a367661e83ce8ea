package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/llm"
	"github.com/ppiankov/deepresearch/internal/model"
)

// source is scraped content that passed the status and emptiness filter
type source struct {
	URL     string
	Content string
}

func (r *run) generate(ctx context.Context, step, system, prompt string, out any) error {
	return r.e.generator.Generate(ctx, llm.Request{
		Step:   step,
		Model:  r.e.cfg.Model,
		System: system,
		Prompt: prompt,
	}, out)
}

// generateSerpQueries asks for at most n sub-queries of query
func (r *run) generateSerpQueries(ctx context.Context, query string, n int) []model.SerpQuery {
	r.thought("Generating SERP queries for: %s", query)

	var list serpQueryList
	prompt := r.e.prompts.SerpQueries(query, n, r.memory.Learnings())
	if err := r.generate(ctx, "serp_queries", r.e.prompts.System(), prompt, &list); err != nil {
		r.logger.Warn("serp query generation failed", zap.Error(err))
		r.thought("Error generating SERP queries: %v", err)
		return nil
	}

	queries := make([]model.SerpQuery, 0, len(list.Queries))
	for _, q := range list.Queries {
		if strings.TrimSpace(q.Query) == "" {
			continue
		}
		queries = append(queries, model.SerpQuery{Query: q.Query, ResearchGoal: q.ResearchGoal})
	}
	if len(queries) > n {
		queries = queries[:n]
	}

	r.thought("Generated %d SERP queries", len(queries))
	for i, q := range queries {
		r.thought("Query %d: %s - Goal: %s", i+1, q.Query, q.ResearchGoal)
	}
	return queries
}

// executeSearch decomposes query into search strings and collects the unique
// result URLs in first-seen order
func (r *run) executeSearch(ctx context.Context, query string) []string {
	r.thought("Decomposing research prompt into specific search queries")

	var list searchEngineQueryList
	prompt := r.e.prompts.SearchEngineQueries(query)
	if err := r.generate(ctx, "search_engine_queries", r.e.prompts.System(), prompt, &list); err != nil {
		r.logger.Warn("search query decomposition failed", zap.Error(err))
		r.thought("Error generating search engine queries: %v", err)
		return nil
	}
	r.thought("Generated %d search engine queries", len(list.Queries))

	seen := make(map[string]struct{})
	var urls []string
	for _, q := range list.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		r.thought("Searching for: %s", q)

		results, err := r.e.searcher.Search(ctx, q, r.e.cfg.ResultsPerQuery)
		if err != nil {
			r.logger.Warn("search failed", zap.String("query", q), zap.Error(err))
			r.thought("Error executing search: %v", err)
			continue
		}
		r.thought("Found %d results for query: %s", len(results), q)

		for _, res := range results {
			if res.URL == "" {
				continue
			}
			if _, ok := seen[res.URL]; ok {
				continue
			}
			seen[res.URL] = struct{}{}
			urls = append(urls, res.URL)
		}
	}

	r.thought("Collected %d unique URLs across all search queries", len(urls))
	return urls
}

// scrapeContent fetches urls, noting every page that did not come back with 200
func (r *run) scrapeContent(ctx context.Context, urls []string) []model.ScrapedPage {
	r.thought("Scraping content from %d URLs", len(urls))

	pages, err := r.e.scraper.BatchScrape(ctx, urls, model.DefaultScrapeOptions())
	if err != nil {
		r.logger.Warn("batch scrape failed", zap.Int("urls", len(urls)), zap.Error(err))
		r.thought("Error scraping content: %v", err)
		return nil
	}

	ok := 0
	for _, p := range pages {
		if p.StatusCode != http.StatusOK {
			r.thought("Failed to scrape URL %s: Status %d", p.URL, p.StatusCode)
			continue
		}
		ok++
	}
	r.thought("Successfully scraped %d out of %d URLs", ok, len(urls))
	return pages
}

// successfulURLs lists every page fetched with status 200, content or not
func successfulURLs(pages []model.ScrapedPage) []string {
	var urls []string
	for _, p := range pages {
		if p.StatusCode == http.StatusOK {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

// usableSources keeps pages with status 200 and content, trimmed to the per-source budget
func usableSources(pages []model.ScrapedPage) []source {
	var sources []source
	for _, p := range pages {
		if p.StatusCode != http.StatusOK || strings.TrimSpace(p.Markdown) == "" {
			continue
		}
		sources = append(sources, source{URL: p.URL, Content: llm.TrimPrompt(p.Markdown, sourceTokenBudget)})
	}
	return sources
}

// evaluateSources rates every source and records the evaluations. A failure
// only costs the evaluations; extraction proceeds regardless.
func (r *run) evaluateSources(ctx context.Context, sources []source) {
	r.thought("Evaluating credibility and relevance of %d sources", len(sources))

	var b strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&b, "<source id='%d'>\n<url>%s</url>\n", i+1, s.URL)
		if hint := r.e.authority.Hint(s.URL); hint != "" {
			fmt.Fprintf(&b, "<authority>%s</authority>\n", hint)
		}
		fmt.Fprintf(&b, "<content>%s</content>\n</source>\n\n", llm.TrimPrompt(s.Content, evaluationTokenBudget))
	}

	var list sourceEvaluationList
	if err := r.generate(ctx, "source_evaluation", r.e.prompts.System(), r.e.prompts.SourceEvaluation(b.String()), &list); err != nil {
		r.logger.Warn("source evaluation failed", zap.Error(err))
		r.thought("Error evaluating sources: %v", err)
		return
	}

	evals := make([]model.SourceEvaluation, 0, len(list.Evaluations))
	for _, ev := range list.Evaluations {
		credibility, err := model.ParseRating(ev.CredibilityRating)
		if err != nil {
			r.thought("Error evaluating sources: credibility of %s: %v", ev.URL, err)
			return
		}
		relevance, err := model.ParseRating(ev.RelevanceRating)
		if err != nil {
			r.thought("Error evaluating sources: relevance of %s: %v", ev.URL, err)
			return
		}
		keyPoints := ev.KeyPoints
		if keyPoints == nil {
			keyPoints = []string{}
		}
		evals = append(evals, model.SourceEvaluation{
			URL:               ev.URL,
			Title:             ev.Title,
			CredibilityRating: credibility,
			RelevanceRating:   relevance,
			Justification:     ev.Justification,
			KeyPoints:         keyPoints,
		})
	}

	for _, ev := range evals {
		r.memory.AddSourceEvaluation(ev)
		r.thought("Source evaluation - URL: %s - Credibility: %s, Relevance: %s",
			ev.URL, ev.CredibilityRating, ev.RelevanceRating)
	}
}

// validationIssues runs the content checks over every source and narrates the findings
func (r *run) validationIssues(sources []source) []string {
	var issues []string
	for _, s := range sources {
		if ok, msg := r.validator.ValidateTemporalConsistency(s.Content); !ok {
			r.thought("Temporal inconsistency in source %s: %s", s.URL, msg)
			issues = append(issues, fmt.Sprintf("Source %s: %s", s.URL, msg))
		}
		if ok, msg := r.validator.ValidateNumericalReasonableness(s.Content); !ok {
			r.thought("Numerical issue in source %s: %s", s.URL, msg)
			issues = append(issues, fmt.Sprintf("Source %s: %s", s.URL, msg))
		}
		r.thought("Content from %s classified as: %s", s.URL, r.validator.ClassifyContentType(s.Content))
	}
	return issues
}

// processResults evaluates the sources and extracts at most n learnings and the
// follow-up questions. It returns nil when nothing could be extracted.
func (r *run) processResults(ctx context.Context, query string, sources []source, n int) *extraction {
	r.thought("Processing search results for query: %s", query)
	if len(sources) == 0 {
		r.thought("No valid content found in search results")
		return nil
	}
	r.thought("Analyzing %d content sources", len(sources))

	r.evaluateSources(ctx, sources)
	issues := r.validationIssues(sources)

	contents := make([]string, len(sources))
	for i, s := range sources {
		contents[i] = "<content>\n" + s.Content + "\n</content>"
	}

	validation := ""
	if len(issues) > 0 {
		validation = "\n**Content Validation Issues:**\n<validation_issues>\n" +
			strings.Join(issues, "\n") + "\n</validation_issues>\n"
		r.thought("Including %d validation issues in analysis prompt", len(issues))
	}

	var ex extraction
	prompt := r.e.prompts.Extraction(query, strings.Join(contents, "\n"), n, validation)
	if err := r.generate(ctx, "extraction", r.e.prompts.System(), prompt, &ex); err != nil {
		r.logger.Warn("learning extraction failed", zap.Error(err))
		r.thought("Error processing search results: %v", err)
		return nil
	}
	ex.Learnings = nonEmpty(ex.Learnings)
	ex.FollowUpQuestions = nonEmpty(ex.FollowUpQuestions)
	if n > 0 && len(ex.Learnings) > n {
		ex.Learnings = ex.Learnings[:n]
	}

	r.thought("Extracted %d learnings", len(ex.Learnings))
	r.thought("Generated %d follow-up questions", len(ex.FollowUpQuestions))
	for i, l := range ex.Learnings {
		r.thought("Learning %d: %s...", i+1, truncateRunes(l, 100))
	}
	return &ex
}

// executeQuery runs search, scrape, evaluation and extraction for one generated
// query. Follow-up questions are only returned when depth > 1.
func (r *run) executeQuery(ctx context.Context, sq model.SerpQuery, depth, breadth int) (out model.QueryOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("query panicked", zap.String("query", sq.Query), zap.Any("panic", p))
			r.thought("Error executing query '%s': %v", sq.Query, p)
			out = model.QueryOutcome{Success: false, Reason: fmt.Sprint(p), NewLearnings: []string{}}
		}
	}()

	r.thought("Executing research query: %s", sq.Query)
	r.thought("Research goal: %s", sq.ResearchGoal)
	r.progress.Update(func(p *model.ProgressSnapshot) {
		p.CurrentQuery = sq.Query
		p.CurrentDepth = depth
		p.CurrentBreadth = breadth
	})

	urls := r.executeSearch(ctx, sq.Query)
	if len(urls) == 0 {
		r.thought("No search results found. Cannot proceed with this query.")
		return model.QueryOutcome{Success: false, Reason: "No search results found", NewLearnings: []string{}}
	}

	pages := r.scrapeContent(ctx, urls)
	sources := usableSources(pages)
	ex := r.processResults(ctx, sq.Query, sources, breadth)

	r.memory.AddURLs(successfulURLs(pages))
	sourceURLs := make([]string, len(sources))
	for i, s := range sources {
		sourceURLs[i] = s.URL
	}

	if ex == nil {
		return model.QueryOutcome{Success: true, NewLearnings: []string{}}
	}

	r.recordLearnings(sq.ResearchGoal, ex.Learnings, strings.Join(sourceURLs, ", "))

	if depth <= 1 {
		return model.QueryOutcome{Success: true, NewLearnings: ex.Learnings}
	}

	r.thought("Identified %d follow-up questions for deeper research", len(ex.FollowUpQuestions))
	for i, q := range ex.FollowUpQuestions {
		r.thought("Follow-up %d: %s", i+1, q)
	}
	if len(ex.FollowUpQuestions) > 0 {
		r.fileInfo(sq.ResearchGoal, model.InfoGaps, ex.FollowUpQuestions...)
	}
	return model.QueryOutcome{Success: true, NewLearnings: ex.Learnings, FollowUpQuestions: ex.FollowUpQuestions}
}

// recordLearnings stores the new learnings and checks each against what was
// known before this query. Uncontested learnings are filed as consensus under goal.
func (r *run) recordLearnings(goal string, learnings []string, sources string) {
	existing := r.memory.Learnings()
	added := r.memory.AddLearnings(learnings)

	var uncontested []string
	for _, l := range added {
		r.learningSources[l] = sources

		findings := r.e.detector.Detect(l, existing)
		for _, f := range findings {
			r.memory.AddContradiction(f.Topic, f.Existing, f.New, r.learningSources[f.Existing], sources)
			r.fileInfo(f.Topic, model.InfoContradictions, f.Existing+" vs. "+f.New)
		}
		if len(findings) == 0 {
			uncontested = append(uncontested, l)
		}
	}
	if len(uncontested) > 0 {
		r.fileInfo(goal, model.InfoConsensus, uncontested...)
	}
}

func (r *run) fileInfo(topic string, kind model.InfoKind, items ...string) {
	if strings.TrimSpace(topic) == "" {
		topic = "General"
	}
	if err := r.memory.UpdateInformationMap(topic, kind, items...); err != nil {
		r.logger.Warn("information map update failed", zap.String("topic", topic), zap.Error(err))
	}
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
