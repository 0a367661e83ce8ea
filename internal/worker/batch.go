package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Researcher runs a complete research session for one query
type Researcher interface {
	Research(ctx context.Context, query string) (model.Result, error)
}

// ResearchJob represents one query of a batch
type ResearchJob struct {
	Query      string
	Researcher Researcher
}

// Execute executes the research job
func (j *ResearchJob) Execute(ctx context.Context) Result {
	result, err := j.Researcher.Research(ctx, j.Query)
	if err != nil {
		return &ResearchOutcome{Query: j.Query, Error: err}
	}
	return &ResearchOutcome{Query: j.Query, Result: &result}
}

// ResearchOutcome is the result of a research job
type ResearchOutcome struct {
	Query  string
	Result *model.Result
	Error  error
}

// GetError returns the error from the outcome
func (r *ResearchOutcome) GetError() error {
	return r.Error
}

// BatchProcessor runs several research queries concurrently
type BatchProcessor struct {
	researcher  Researcher
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(researcher Researcher, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		researcher:  researcher,
		concurrency: concurrency,
	}
}

// ProcessQueries runs every query and returns outcomes in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*ResearchOutcome {
	if len(queries) == 0 {
		return []*ResearchOutcome{}
	}

	jobs := make([]Job, len(queries))
	for i, q := range queries {
		jobs[i] = &ResearchJob{Query: q, Researcher: b.researcher}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	outcomes := make([]*ResearchOutcome, len(results))
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("query not started")
			}
			outcomes[i] = &ResearchOutcome{Query: queries[i], Error: err}
			continue
		}
		outcomes[i] = r.(*ResearchOutcome)
	}
	return outcomes
}

// ProcessFile reads queries from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ResearchOutcome, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads research queries from a file (one per line).
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
