package model

// SerpQuery is a generated sub-query together with the goal it serves
type SerpQuery struct {
	Query        string `json:"query"`
	ResearchGoal string `json:"research_goal"`
}

// SearchResult is a single hit returned by a search backend
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ScrapeOptions control how a batch of pages is fetched
type ScrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int      `json:"timeout"` // milliseconds
}

// DefaultScrapeOptions are used for every research step
func DefaultScrapeOptions() ScrapeOptions {
	return ScrapeOptions{
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		Timeout:         30000,
	}
}

// ScrapedPage is one entry of a batch scrape response
type ScrapedPage struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title,omitempty"`
	Markdown   string `json:"markdown,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the page was fetched successfully and carries content
func (p ScrapedPage) OK() bool {
	return p.StatusCode == 200 && p.Markdown != ""
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Official statistics, filings, academic papers
	TierSecondary AuthorityTier = 2 // Major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, aggregators, forums
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
