package agent

import (
	"regexp"
	"strings"

	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// Demand scores attached to each opportunity level.
const (
	ScoreHigh   = 80
	ScoreMedium = 50
	ScoreLow    = 25
)

// MaxCompetitors caps how many competitor domains are reported.
const MaxCompetitors = 3

// paidWindow is how far past a domain mention to look for paid-traffic words.
const paidWindow = 120

var (
	revenuePattern = regexp.MustCompile(`\$[\d,]+(\.\d+)?[kK]?(/mo(nth)?)?`)
	domainPattern  = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]*\.com\b`)
	paidPattern    = regexp.MustCompile(`(?i)\b(paid|ads)\b`)
)

var (
	upWords       = []string{"growing", "increasing", "upward", "trending up"}
	downWords     = []string{"declining", "decreasing", "downward", "falling"}
	highDemand    = []string{"high demand", "strong demand", "pass", "validated"}
	lowDemand     = []string{"low demand", "weak demand", "fail", "insufficient"}
	excludedSites = map[string]bool{
		"amazon.com":  true,
		"walmart.com": true,
		"ebay.com":    true,
		"target.com":  true,
		"google.com":  true,
	}
)

// Signals are the fields pattern-matched out of an analysis narrative.
type Signals struct {
	Revenue          string
	Trend            models.Trend
	OpportunityLevel models.OpportunityLevel
	DemandScore      int
	Competitors      []models.Competitor
}

// ExtractSignals pulls structured hints out of free text. It never fails;
// missing data yields sentinel or default values.
func ExtractSignals(text string) Signals {
	lower := strings.ToLower(text)
	level, score := opportunity(lower)

	return Signals{
		Revenue:          revenue(text),
		Trend:            trend(lower),
		OpportunityLevel: level,
		DemandScore:      score,
		Competitors:      competitors(text),
	}
}

func revenue(text string) string {
	if m := revenuePattern.FindString(text); m != "" {
		return m
	}
	return models.SeeAnalysis
}

func trend(lower string) models.Trend {
	switch {
	case containsAny(lower, upWords):
		return models.TrendUp
	case containsAny(lower, downWords):
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func opportunity(lower string) (models.OpportunityLevel, int) {
	switch {
	case containsAny(lower, highDemand):
		return models.OpportunityHigh, ScoreHigh
	case containsAny(lower, lowDemand):
		return models.OpportunityLow, ScoreLow
	default:
		return models.OpportunityMedium, ScoreMedium
	}
}

func competitors(text string) []models.Competitor {
	seen := make(map[string]bool)
	out := []models.Competitor{}

	for _, domain := range domainPattern.FindAllString(text, -1) {
		if seen[domain] {
			continue
		}
		seen[domain] = true
		if excludedSites[strings.ToLower(domain)] {
			continue
		}

		source := models.TrafficOrganic
		if mentionsPaid(text, domain) {
			source = models.TrafficPaid
		}
		out = append(out, models.Competitor{
			Domain:        domain,
			Traffic:       models.SeeAnalysis,
			TrafficSource: source,
			TopKeywords:   []string{},
		})
		if len(out) == MaxCompetitors {
			break
		}
	}
	return out
}

// mentionsPaid reports whether "paid" or "ads" follows any mention of
// domain on the same line within paidWindow bytes.
func mentionsPaid(text, domain string) bool {
	rest := text
	for {
		i := strings.Index(rest, domain)
		if i < 0 {
			return false
		}
		after := rest[i+len(domain):]
		if nl := strings.IndexByte(after, '\n'); nl >= 0 {
			after = after[:nl]
		}
		if len(after) > paidWindow {
			after = after[:paidWindow]
		}
		if paidPattern.MatchString(after) {
			return true
		}
		rest = rest[i+len(domain):]
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
