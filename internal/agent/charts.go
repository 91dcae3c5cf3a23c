package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/kiranshivaraju/nichescout/internal/metrics"
	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// maxChartInput bounds the analysis text sent to the extraction pass.
const maxChartInput = 3000

const chartSystemPrompt = `You are a JSON generator. Reply with a single JSON object and nothing else: no prose, no markdown.
The object must have exactly two keys:
"revenueHistory": an array of {"month": string, "value": number} with monthly revenue in USD, oldest first.
"trafficDistribution": an array of {"name": string, "value": number} with traffic share percentages by source.
Use only figures supported by the analysis. If the analysis has no data for a key, return an empty array for it.`

// ChartData holds the two chart series synthesized from an analysis.
type ChartData struct {
	RevenueHistory      []models.RevenuePoint `json:"revenueHistory"`
	TrafficDistribution []models.TrafficShare `json:"trafficDistribution"`
}

func emptyCharts() ChartData {
	return ChartData{
		RevenueHistory:      []models.RevenuePoint{},
		TrafficDistribution: []models.TrafficShare{},
	}
}

// ChartSynthesizer turns analysis prose into chart series with a second,
// JSON-only model pass.
type ChartSynthesizer struct {
	model   model.BaseChatModel
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewChartSynthesizer creates a synthesizer. limiter may be nil.
func NewChartSynthesizer(m model.BaseChatModel, limiter *rate.Limiter, logger *slog.Logger) *ChartSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartSynthesizer{model: m, limiter: limiter, logger: logger}
}

// SynthesizeCharts never returns an error: any failure yields two empty series.
func (c *ChartSynthesizer) SynthesizeCharts(ctx context.Context, analysisText, productName string) ChartData {
	if c == nil || c.model == nil {
		return emptyCharts()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.fallback("rate_limit", productName, err)
			return emptyCharts()
		}
	}

	msgs := []*schema.Message{
		schema.SystemMessage(chartSystemPrompt),
		schema.UserMessage(fmt.Sprintf("Product: %s\n\nAnalysis:\n%s", productName, truncateRunes(analysisText, maxChartInput))),
	}

	reply, err := c.model.Generate(ctx, msgs)
	if err != nil {
		c.fallback("model", productName, err)
		return emptyCharts()
	}
	if reply == nil {
		c.fallback("model", productName, fmt.Errorf("empty reply"))
		return emptyCharts()
	}

	data, err := parseChartJSON(reply.Content)
	if err != nil {
		c.fallback("parse", productName, err)
		return emptyCharts()
	}
	return data
}

func (c *ChartSynthesizer) fallback(reason, productName string, err error) {
	metrics.RecordChartFallback(reason)
	c.logger.Warn("chart synthesis fell back to empty series", "product", productName, "reason", reason, "error", err)
}

func parseChartJSON(content string) (ChartData, error) {
	var data ChartData
	if err := json.Unmarshal([]byte(stripFences(content)), &data); err != nil {
		return emptyCharts(), fmt.Errorf("decoding chart json: %w", err)
	}
	if data.RevenueHistory == nil {
		data.RevenueHistory = []models.RevenuePoint{}
	}
	if data.TrafficDistribution == nil {
		data.TrafficDistribution = []models.TrafficShare{}
	}
	return data, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
