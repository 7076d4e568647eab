package admission

import (
	"regexp"
	"strings"
)

type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceUnknown Confidence = "unknown"
)

// Verdict is the outcome of one admission check. Reason names the rule
// category that fired, never the matched pattern itself.
type Verdict struct {
	Blocked    bool       `json:"blocked"`
	Reason     string     `json:"reason,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
}

const (
	reasonExplicitContent    = "contains explicit adult content"
	reasonBlockedDomain      = "blocked domain"
	reasonURLExplicitContent = "url contains adult content patterns"
	reasonSuspiciousPatterns = "multiple suspicious patterns detected"
	reasonSuspiciousDensity  = "high ratio of suspicious content"
	reasonEvaluationFault    = "content filtering error"
)

// Rules holds the pattern sets evaluated by the filter. Separate from Filter
// so tests can inject degenerate rule sets.
type Rules struct {
	Explicit         []*regexp.Regexp
	Suspicious       []*regexp.Regexp
	BlockedDomains   []string
	SuspiciousWords  []string
	DensityThreshold float64
	// MinSuspiciousPatterns is the number of distinct suspicious patterns
	// that escalates to a block.
	MinSuspiciousPatterns int
}

// Filter is a stateless rule engine deciding whether content may enter the
// index. It fails closed: an internal fault during evaluation blocks the
// content with unknown confidence instead of admitting it.
type Filter struct {
	rules Rules
}

func NewFilter() *Filter {
	return NewFilterWithRules(DefaultRules())
}

func NewFilterWithRules(rules Rules) *Filter {
	if rules.DensityThreshold <= 0 {
		rules.DensityThreshold = 0.1
	}
	if rules.MinSuspiciousPatterns <= 0 {
		rules.MinSuspiciousPatterns = 2
	}
	return &Filter{rules: rules}
}

// CheckText decides whether free text may be indexed.
func (f *Filter) CheckText(content string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = failClosed(r)
		}
	}()

	if strings.TrimSpace(content) == "" {
		return Verdict{}
	}
	lower := strings.ToLower(content)

	for _, pattern := range f.rules.Explicit {
		if pattern.MatchString(lower) {
			return Verdict{Blocked: true, Reason: reasonExplicitContent, Confidence: ConfidenceHigh}
		}
	}

	distinct := 0
	for _, pattern := range f.rules.Suspicious {
		if pattern.MatchString(lower) {
			distinct++
		}
	}
	if distinct >= f.rules.MinSuspiciousPatterns {
		return Verdict{Blocked: true, Reason: reasonSuspiciousPatterns, Confidence: ConfidenceMedium}
	}

	words := strings.Fields(lower)
	if len(words) > 0 {
		ratio := float64(f.countSuspiciousWords(lower)) / float64(len(words))
		if ratio > f.rules.DensityThreshold {
			return Verdict{Blocked: true, Reason: reasonSuspiciousDensity, Confidence: ConfidenceMedium}
		}
	}

	return Verdict{}
}

// CheckURL decides whether a URL may be fetched and indexed. Domain matching
// is substring-based so path and subdomain variants are caught too.
func (f *Filter) CheckURL(url string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = failClosed(r)
		}
	}()

	if strings.TrimSpace(url) == "" {
		return Verdict{}
	}
	lower := strings.ToLower(url)

	for _, domain := range f.rules.BlockedDomains {
		if strings.Contains(lower, domain) {
			return Verdict{Blocked: true, Reason: reasonBlockedDomain, Confidence: ConfidenceHigh}
		}
	}

	for _, pattern := range f.rules.Explicit {
		if pattern.MatchString(lower) {
			return Verdict{Blocked: true, Reason: reasonURLExplicitContent, Confidence: ConfidenceHigh}
		}
	}

	return Verdict{}
}

// countSuspiciousWords counts every whole-word occurrence, not just distinct
// hits, so repeated terms raise the density ratio.
func (f *Filter) countSuspiciousWords(lower string) int {
	count := 0
	for _, word := range f.rules.SuspiciousWords {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
		count += len(pattern.FindAllStringIndex(lower, -1))
	}
	return count
}

func failClosed(_ any) Verdict {
	return Verdict{Blocked: true, Reason: reasonEvaluationFault, Confidence: ConfidenceUnknown}
}
