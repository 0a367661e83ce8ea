package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/deepresearch/internal/model"
)

// AuthorityClassifier assigns research sources to authority tiers. The tier is
// passed to source evaluation as a hint, never as a verdict.
type AuthorityClassifier struct {
	domainMap    map[string]model.AuthorityTier
	primary      []string
	secondary    []string
	pathPatterns []tierPattern
}

type tierPattern struct {
	re   *regexp.Regexp
	tier model.AuthorityTier
}

// NewAuthorityClassifier builds a classifier from config. Nil config uses the defaults.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		defaults := model.DefaultConfig().Authority
		config = &defaults
	}

	a := &AuthorityClassifier{
		domainMap: make(map[string]model.AuthorityTier, len(config.DomainMap)),
		primary:   normalizeDomains(config.PrimaryDomains),
		secondary: normalizeDomains(config.SecondaryDomains),
	}
	for host, tier := range config.DomainMap {
		a.domainMap[strings.ToLower(host)] = ParseTier(tier)
	}
	for _, p := range config.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		a.pathPatterns = append(a.pathPatterns, tierPattern{re: re, tier: ParseTier(p.Tier)})
	}
	return a
}

// Classify returns the authority tier of a source URL
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return model.TierSecondary
	}
	for _, p := range a.pathPatterns {
		if p.re.MatchString(parsed.Path) {
			return p.tier
		}
	}

	// Government and academic TLDs
	for _, suffix := range []string{".gov", ".edu", ".ac.uk", ".int"} {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}
	return model.TierTertiary
}

// Hint renders a short authority note for a source evaluation prompt
func (a *AuthorityClassifier) Hint(rawURL string) string {
	switch a.Classify(rawURL) {
	case model.TierPrimary:
		return "primary (official, regulatory or academic publisher)"
	case model.TierSecondary:
		return "secondary (established news or reference publisher)"
	default:
		return "tertiary (unverified publisher, weigh with care)"
	}
}

// ParseTier converts a tier name or number to an AuthorityTier
func ParseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
