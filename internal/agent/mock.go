package agent

import (
	"context"
	"strings"
	"time"

	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// DefaultMockRecommendation is returned when no canned record matches.
const DefaultMockRecommendation = "Analysis complete. Data limited for this keyword in demo mode. Try 'Clay Mask' or 'Snail Mucin'."

type mockEntry struct {
	key    string
	result models.AnalysisResult
}

// mockTable is matched in order; the first fuzzy hit wins.
var mockTable = []mockEntry{
	{
		key: "Clay Mask",
		result: models.AnalysisResult{
			Name:             "Clay Mask",
			DemandScore:      85,
			Revenue:          "$52,000/mo",
			Trend:            models.TrendUp,
			OpportunityLevel: models.OpportunityHigh,
			Recommendation:   "Strong Amazon demand. Top competitors rely heavily on Google Ads. Focus your budget on PPC to capture high-intent traffic.",
			RevenueHistory: []models.RevenuePoint{
				{Month: "Jan", Value: 30000},
				{Month: "Feb", Value: 35000},
				{Month: "Mar", Value: 32000},
				{Month: "Apr", Value: 40000},
				{Month: "May", Value: 48000},
				{Month: "Jun", Value: 52000},
			},
			TrafficDistribution: []models.TrafficShare{
				{Name: "Paid Ads", Value: 65},
				{Name: "Organic", Value: 20},
				{Name: "Social", Value: 10},
				{Name: "Other", Value: 5},
			},
			Competitors: []models.Competitor{
				{Domain: "glamglow.com", Traffic: "125k/mo", TrafficSource: models.TrafficPaid, TopKeywords: []string{"best clay mask", "glamglow sale", "pore cleanser"}},
				{Domain: "kiehls.com", Traffic: "850k/mo", TrafficSource: models.TrafficOrganic, TopKeywords: []string{"face mask for men", "rare earth deep pore", "kiehls"}},
				{Domain: "innisfree.com", Traffic: "45k/mo", TrafficSource: models.TrafficPaid, TopKeywords: []string{"volcanic clay mask", "innisfree coupon"}},
			},
		},
	},
	{
		key: "Beetroot Scrub",
		result: models.AnalysisResult{
			Name:             "Beetroot Scrub",
			DemandScore:      20,
			Revenue:          "$3,200/mo",
			Trend:            models.TrendDown,
			OpportunityLevel: models.OpportunityLow,
			Recommendation:   "Low demand verified on Amazon (<$5k/mo). The market saturation is high with low search volume. Recommend pivoting to a different niche or bundling.",
			RevenueHistory: []models.RevenuePoint{
				{Month: "Jan", Value: 4500},
				{Month: "Feb", Value: 4200},
				{Month: "Mar", Value: 3800},
				{Month: "Apr", Value: 3500},
				{Month: "May", Value: 3300},
				{Month: "Jun", Value: 3200},
			},
			TrafficDistribution: []models.TrafficShare{
				{Name: "Organic", Value: 70},
				{Name: "Social", Value: 20},
				{Name: "Paid Ads", Value: 5},
				{Name: "Other", Value: 5},
			},
			Competitors: []models.Competitor{
				{Domain: "generic-beauty.com", Traffic: "5k/mo", TrafficSource: models.TrafficOrganic, TopKeywords: []string{"beetroot benefits", "natural scrub"}},
			},
		},
	},
	{
		key: "Snail Mucin",
		result: models.AnalysisResult{
			Name:             "Snail Mucin Serum",
			DemandScore:      98,
			Revenue:          "$120,000/mo",
			Trend:            models.TrendUp,
			OpportunityLevel: models.OpportunityHigh,
			Recommendation:   "Explosive trend (+200% YoY). High search volume with relatively few established DTC specialists outside of Cosrx. Huge opportunity for branding.",
			RevenueHistory: []models.RevenuePoint{
				{Month: "Jan", Value: 50000},
				{Month: "Feb", Value: 65000},
				{Month: "Mar", Value: 80000},
				{Month: "Apr", Value: 95000},
				{Month: "May", Value: 110000},
				{Month: "Jun", Value: 120000},
			},
			TrafficDistribution: []models.TrafficShare{
				{Name: "Social", Value: 55},
				{Name: "Organic", Value: 30},
				{Name: "Paid Ads", Value: 10},
				{Name: "Other", Value: 5},
			},
			Competitors: []models.Competitor{
				{Domain: "cosrx.com", Traffic: "2.5M/mo", TrafficSource: models.TrafficOrganic, TopKeywords: []string{"snail 96", "korean skincare", "cosrx"}},
				{Domain: "peachandlily.com", Traffic: "450k/mo", TrafficSource: models.TrafficPaid, TopKeywords: []string{"glass skin serum", "best k-beauty"}},
			},
		},
	},
}

// MockAnalyzer serves canned analyses after a simulated delay.
type MockAnalyzer struct {
	Delay time.Duration
}

// RunMockAnalysis waits Delay, then returns the first canned record whose
// key and productName contain one another (case-insensitive), or a default
// record. A canceled context returns ctx.Err().
func (m MockAnalyzer) RunMockAnalysis(ctx context.Context, productName string) (*models.AnalysisResult, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if res, ok := lookupMock(productName); ok {
		return &res, nil
	}

	res := models.AnalysisResult{
		Name:             productName,
		DemandScore:      ScoreMedium,
		Revenue:          "Unknown",
		Trend:            models.TrendStable,
		OpportunityLevel: models.OpportunityMedium,
		Recommendation:   DefaultMockRecommendation,
	}
	res.Normalize()
	return &res, nil
}

func lookupMock(productName string) (models.AnalysisResult, bool) {
	name := strings.ToLower(productName)
	for _, e := range mockTable {
		key := strings.ToLower(e.key)
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return e.result.Clone(), true
		}
	}
	return models.AnalysisResult{}, false
}
