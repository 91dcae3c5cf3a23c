// Package agent runs product niche analyses: a bounded tool-calling loop
// over the user's data connectors, bot-challenge detection, and the
// extraction of a structured result from the model's report.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/nichescout/internal/metrics"
	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// MaxChatMessages bounds the history accepted by Chat.
const MaxChatMessages = 100

// DefaultParseName names re-parsed analyses that arrive without a product.
const DefaultParseName = "Analysis"

const recordTimeout = 5 * time.Second

// HistoryRecorder persists finished analyses.
type HistoryRecorder interface {
	CreateAnalysis(ctx context.Context, a *models.Analysis) error
}

// ServiceConfig wires a Service. Orchestrator may be nil, in which case
// only mock analyses are served.
type ServiceConfig struct {
	Orchestrator *Orchestrator
	Charts       *ChartSynthesizer
	Mock         MockAnalyzer
	History      HistoryRecorder
	Logger       *slog.Logger
}

// Service is the entry point for analyses, re-parsing and chat.
type Service struct {
	orchestrator *Orchestrator
	charts       *ChartSynthesizer
	mock         MockAnalyzer
	history      HistoryRecorder
	logger       *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orchestrator: cfg.Orchestrator,
		charts:       cfg.Charts,
		mock:         cfg.Mock,
		history:      cfg.History,
		logger:       logger,
	}
}

// LiveEnabled reports whether live analyses and chat are available.
func (s *Service) LiveEnabled() bool {
	return s.orchestrator != nil
}

// SystemPrompt returns the analyst prompt for today.
func (s *Service) SystemPrompt() string {
	return SystemPrompt()
}

// AnalyzeProduct analyzes productName for userID, from the canned table
// when useMockData is set and with live tools otherwise.
func (s *Service) AnalyzeProduct(ctx context.Context, productName, userID string, useMockData bool) (*models.AnalysisResult, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, ErrEmptyProductName
	}

	if useMockData {
		res, err := s.mock.RunMockAnalysis(ctx, productName)
		if err != nil {
			metrics.RecordAnalysis("mock", "error")
			return nil, err
		}
		metrics.RecordAnalysis("mock", "ok")
		s.record(ctx, &models.Analysis{
			UserID:      userID,
			ProductName: productName,
			Mock:        true,
			Result:      *res,
		})
		return res, nil
	}

	if s.orchestrator == nil {
		return nil, ErrLiveModeDisabled
	}

	started := time.Now()
	run, err := s.orchestrator.analyze(ctx, productName, userID)
	if err != nil {
		metrics.RecordAnalysis("live", "error")
		s.logger.Error("live analysis failed", "user_id", userID, "product", productName, "error", err)
		return nil, fmt.Errorf("analyzing %q: %w", productName, err)
	}

	outcome := "ok"
	if run.Outcome.ChallengeDetected {
		outcome = "blocked"
	}
	metrics.RecordAnalysis("live", outcome)
	s.logger.Info("live analysis complete",
		"user_id", userID,
		"product", productName,
		"steps", run.Outcome.Steps,
		"tool_calls", run.Outcome.ToolCalls,
		"challenge_detected", run.Outcome.ChallengeDetected,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	s.record(ctx, &models.Analysis{
		UserID:            userID,
		ProductName:       productName,
		ChallengeDetected: run.Outcome.ChallengeDetected,
		Steps:             run.Outcome.Steps,
		Result:            *run.Result,
		Transcript:        RenderTranscript(run.Outcome.Transcript),
	})
	return run.Result, nil
}

// ParseAgentResponse builds a structured result from a stored report.
func (s *Service) ParseAgentResponse(ctx context.Context, text, productName string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	productName = strings.TrimSpace(productName)
	if productName == "" {
		productName = DefaultParseName
	}

	if IsChallengeResponse(text) {
		return BlockedResult(productName, text), nil
	}

	signals := ExtractSignals(text)
	charts := s.charts.SynthesizeCharts(ctx, text, productName)

	res := &models.AnalysisResult{
		Name:                productName,
		DemandScore:         signals.DemandScore,
		Revenue:             signals.Revenue,
		Trend:               signals.Trend,
		OpportunityLevel:    signals.OpportunityLevel,
		Recommendation:      text,
		RevenueHistory:      charts.RevenueHistory,
		TrafficDistribution: charts.TrafficDistribution,
		Competitors:         signals.Competitors,
	}
	res.Normalize()
	return res, nil
}

// Chat continues a conversation with the tool-using agent.
func (s *Service) Chat(ctx context.Context, userID string, messages []models.ChatMessage) (*models.ChatReply, error) {
	if err := ValidateChat(messages); err != nil {
		return nil, err
	}
	if s.orchestrator == nil {
		return nil, ErrLiveModeDisabled
	}

	outcome, err := s.orchestrator.Converse(ctx, userID, messages)
	if err != nil {
		s.logger.Error("chat run failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("running chat: %w", err)
	}

	return &models.ChatReply{
		Text:              outcome.Text,
		Steps:             outcome.Steps,
		ChallengeDetected: outcome.ChallengeDetected,
	}, nil
}

// ValidateChat checks message count and roles.
func ValidateChat(messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}
	if len(messages) > MaxChatMessages {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyMessages, len(messages), MaxChatMessages)
	}
	for i, m := range messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}

// record stores a finished analysis. Failures are logged only.
func (s *Service) record(ctx context.Context, a *models.Analysis) {
	if s.history == nil {
		return
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.history.CreateAnalysis(ctx, a); err != nil {
		s.logger.Error("failed to record analysis", "user_id", a.UserID, "product", a.ProductName, "error", err)
	}
}

// RenderTranscript flattens a run's messages into readable text.
func RenderTranscript(msgs []*schema.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m == nil || m.Role == schema.System {
			continue
		}
		fmt.Fprintf(&b, "[%s]", m.Role)
		if m.ToolName != "" {
			fmt.Fprintf(&b, " %s", m.ToolName)
		}
		b.WriteString("\n")
		if m.Content != "" {
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		for _, tc := range m.ToolCalls {
			fmt.Fprintf(&b, "-> %s %s\n", tc.Function.Name, tc.Function.Arguments)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
