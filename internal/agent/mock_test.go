package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/nichescout/pkg/models"
)

func TestRunMockAnalysis_FuzzyMatch(t *testing.T) {
	m := MockAnalyzer{}

	tests := []struct {
		input string
		want  string
	}{
		{"clay", "Clay Mask"},
		{"Organic CLAY MASK for men", "Clay Mask"},
		{"beetroot", "Beetroot Scrub"},
		{"snail mucin", "Snail Mucin Serum"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, err := m.RunMockAnalysis(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Name)
		})
	}
}

func TestRunMockAnalysis_CannedRecord(t *testing.T) {
	res, err := MockAnalyzer{}.RunMockAnalysis(context.Background(), "clay")
	require.NoError(t, err)

	assert.Equal(t, 85, res.DemandScore)
	assert.Equal(t, "$52,000/mo", res.Revenue)
	assert.Equal(t, models.OpportunityHigh, res.OpportunityLevel)
	assert.Len(t, res.Competitors, 3)
	assert.Len(t, res.RevenueHistory, 6)
}

func TestRunMockAnalysis_ReturnsCopy(t *testing.T) {
	first, err := MockAnalyzer{}.RunMockAnalysis(context.Background(), "clay")
	require.NoError(t, err)
	first.Competitors[0].Domain = "mutated.com"
	first.Competitors[0].TopKeywords[0] = "mutated"

	second, err := MockAnalyzer{}.RunMockAnalysis(context.Background(), "clay")
	require.NoError(t, err)
	assert.Equal(t, "glamglow.com", second.Competitors[0].Domain)
	assert.Equal(t, "best clay mask", second.Competitors[0].TopKeywords[0])
}

func TestRunMockAnalysis_Default(t *testing.T) {
	res, err := MockAnalyzer{}.RunMockAnalysis(context.Background(), "Unknown Product XYZ")
	require.NoError(t, err)

	assert.Equal(t, "Unknown Product XYZ", res.Name)
	assert.Equal(t, 50, res.DemandScore)
	assert.Equal(t, "Unknown", res.Revenue)
	assert.Equal(t, models.TrendStable, res.Trend)
	assert.Equal(t, models.OpportunityMedium, res.OpportunityLevel)
	assert.Contains(t, res.Recommendation, "limited for this keyword")
	assert.NotNil(t, res.Competitors)
	assert.Empty(t, res.Competitors)
	assert.NotNil(t, res.RevenueHistory)
	assert.NotNil(t, res.TrafficDistribution)
}

func TestRunMockAnalysis_Delay(t *testing.T) {
	m := MockAnalyzer{Delay: 30 * time.Millisecond}

	start := time.Now()
	_, err := m.RunMockAnalysis(context.Background(), "clay")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRunMockAnalysis_Canceled(t *testing.T) {
	m := MockAnalyzer{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.RunMockAnalysis(ctx, "clay")
	assert.ErrorIs(t, err, context.Canceled)
}
