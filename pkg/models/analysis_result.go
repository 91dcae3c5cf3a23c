// Package models contains shared data models used across the NicheScout codebase.
package models

// Trend is the directional signal inferred from an analysis narrative.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// OpportunityLevel is the coarse market-opportunity classification.
type OpportunityLevel string

const (
	OpportunityLow    OpportunityLevel = "Low"
	OpportunityMedium OpportunityLevel = "Medium"
	OpportunityHigh   OpportunityLevel = "High"
)

// TrafficSource classifies where a competitor's traffic mostly comes from.
type TrafficSource string

const (
	TrafficOrganic TrafficSource = "Organic (SEO)"
	TrafficPaid    TrafficSource = "Paid (Ads)"
)

// Sentinel values used in string fields when real data is unavailable.
const (
	SeeAnalysis    = "See analysis"
	RevenueBlocked = "API Blocked"
)

// AnalysisResult is the structured outcome of a product niche analysis.
// JSON field names match what the dashboard frontend consumes.
type AnalysisResult struct {
	Name                string           `json:"name"`
	DemandScore         int              `json:"demandScore"`
	Revenue             string           `json:"revenue"`
	Trend               Trend            `json:"trend"`
	OpportunityLevel    OpportunityLevel `json:"opportunityLevel"`
	Recommendation      string           `json:"recommendation"`
	RevenueHistory      []RevenuePoint   `json:"revenueHistory"`
	TrafficDistribution []TrafficShare   `json:"trafficDistribution"`
	Competitors         []Competitor     `json:"competitors"`
}

// Competitor is a direct-to-consumer site competing in the analyzed niche.
type Competitor struct {
	Domain        string        `json:"domain"`
	Traffic       string        `json:"traffic"`
	TrafficSource TrafficSource `json:"trafficSource"`
	TopKeywords   []string      `json:"topKeywords"`
}

// RevenuePoint is one month of the synthetic revenue series.
type RevenuePoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// TrafficShare is one category of the traffic distribution chart.
type TrafficShare struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Normalize replaces nil slices with empty ones so the record always
// serializes arrays rather than null.
func (r *AnalysisResult) Normalize() {
	if r.RevenueHistory == nil {
		r.RevenueHistory = []RevenuePoint{}
	}
	if r.TrafficDistribution == nil {
		r.TrafficDistribution = []TrafficShare{}
	}
	if r.Competitors == nil {
		r.Competitors = []Competitor{}
	}
	for i := range r.Competitors {
		if r.Competitors[i].TopKeywords == nil {
			r.Competitors[i].TopKeywords = []string{}
		}
	}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.RevenueHistory = append([]RevenuePoint(nil), r.RevenueHistory...)
	out.TrafficDistribution = append([]TrafficShare(nil), r.TrafficDistribution...)
	out.Competitors = make([]Competitor, len(r.Competitors))
	for i, c := range r.Competitors {
		c.TopKeywords = append([]string(nil), c.TopKeywords...)
		out.Competitors[i] = c
	}
	out.Normalize()
	return out
}
