package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full runtime configuration
type Config struct {
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
}

// ResearchConfig controls the shape of the research tree
type ResearchConfig struct {
	Breadth         int           `yaml:"breadth" mapstructure:"breadth"` // 0 = unset
	Depth           int           `yaml:"depth" mapstructure:"depth"`     // 0 = unset
	AutoTune        bool          `yaml:"auto_tune" mapstructure:"auto_tune"`
	MaxDepth        int           `yaml:"max_depth" mapstructure:"max_depth"`
	MaxBreadth      int           `yaml:"max_breadth" mapstructure:"max_breadth"`
	TimeBudget      time.Duration `yaml:"time_budget" mapstructure:"time_budget"` // 0 = none
	MaxExpansions   int           `yaml:"max_expansions" mapstructure:"max_expansions"`
	ResultsPerQuery int           `yaml:"results_per_query" mapstructure:"results_per_query"`
	Domain          string        `yaml:"domain" mapstructure:"domain"`
}

// LLMConfig selects and configures the structured generation backend
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SearchConfig selects the web search backend
type SearchConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // tavily, bing, duckduckgo
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ScrapeConfig selects and tunes the page scraping backend
type ScrapeConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // http, firecrawl
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	InsecureTLS       bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the scrape and search caches
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls report files and terminal rendering
type OutputConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	WriteReports   bool   `yaml:"write_reports" mapstructure:"write_reports"`
	RenderTerminal bool   `yaml:"render_terminal" mapstructure:"render_terminal"`
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`
}

// StoreConfig controls the run history database
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// AuthorityConfig drives source tier classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regex to a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".deepresearch")

	return Config{
		Research: ResearchConfig{
			MaxDepth:        5,
			MaxBreadth:      8,
			MaxExpansions:   50,
			ResultsPerQuery: 4,
			Domain:          "finance",
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Search: SearchConfig{
			Provider:          "tavily",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
			CacheTTL:          time.Hour,
		},
		Scrape: ScrapeConfig{
			Provider:          "http",
			Timeout:           30 * time.Second,
			UserAgent:         "DeepResearch/0.1 (+https://github.com/ppiankov/deepresearch)",
			MaxBodyBytes:      2_000_000,
			Workers:           4,
			MaxRetries:        2,
			RespectRobots:     true,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			Dir:            "research_output",
			WriteReports:   true,
			RenderTerminal: true,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(base, "history.db"),
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"sec.gov", "federalreserve.gov", "bls.gov", "census.gov", "europa.eu",
				"imf.org", "worldbank.org", "oecd.org", "who.int", "nih.gov",
				"arxiv.org", "nature.com", "science.org",
			},
			SecondaryDomains: []string{
				"reuters.com", "apnews.com", "bloomberg.com", "ft.com", "wsj.com",
				"economist.com", "bbc.co.uk", "nytimes.com", "wikipedia.org",
			},
			PathPatterns: []PathPattern{
				{Pattern: `/investor-relations?/`, Tier: "primary"},
				{Pattern: `/press-releases?/`, Tier: "primary"},
				{Pattern: `/blog/`, Tier: "tertiary"},
			},
		},
	}
}
