package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/kiranshivaraju/nichescout/internal/connector"
	"github.com/kiranshivaraju/nichescout/internal/metrics"
	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// DefaultMaxSteps bounds the model turns of one run.
const DefaultMaxSteps = 15

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Provider connector.Provider
	Model    model.ToolCallingChatModel
	Charts   *ChartSynthesizer
	// Limiter paces model calls. Nil disables pacing.
	Limiter  *rate.Limiter
	MaxSteps int
	Logger   *slog.Logger
	// Now overrides the clock used for the prompt dates.
	Now func() time.Time
}

// Orchestrator drives the tool-calling model against a user's connector
// session. It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	provider connector.Provider
	model    model.ToolCallingChatModel
	charts   *ChartSynthesizer
	limiter  *rate.Limiter
	maxSteps int
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		provider: cfg.Provider,
		model:    cfg.Model,
		charts:   cfg.Charts,
		limiter:  cfg.Limiter,
		maxSteps: cfg.MaxSteps,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if o.maxSteps <= 0 {
		o.maxSteps = DefaultMaxSteps
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// RunOutcome summarizes one agent run.
type RunOutcome struct {
	Text              string
	Steps             int
	ToolCalls         int
	ChallengeDetected bool
	Challenges        int
	FinishReason      string
	Transcript        []*schema.Message
}

// AnalysisRun is a finished live analysis plus the run that produced it.
type AnalysisRun struct {
	Result  *models.AnalysisResult
	Outcome RunOutcome
}

// RunRealAnalysis analyzes productName with live tools for userID.
func (o *Orchestrator) RunRealAnalysis(ctx context.Context, productName, userID string) (*models.AnalysisResult, error) {
	run, err := o.analyze(ctx, productName, userID)
	if err != nil {
		return nil, err
	}
	return run.Result, nil
}

func (o *Orchestrator) analyze(ctx context.Context, productName, userID string) (AnalysisRun, error) {
	outcome, err := o.run(ctx, userID, []*schema.Message{schema.UserMessage(TaskInstruction(productName))})
	if err != nil {
		return AnalysisRun{Outcome: outcome}, err
	}

	if outcome.ChallengeDetected {
		o.logger.Warn("analysis blocked by bot challenge",
			"user_id", userID, "product", productName, "challenges", outcome.Challenges)
		return AnalysisRun{Result: BlockedResult(productName, outcome.Text), Outcome: outcome}, nil
	}

	signals := ExtractSignals(outcome.Text)
	charts := o.charts.SynthesizeCharts(ctx, outcome.Text, productName)

	res := &models.AnalysisResult{
		Name:                productName,
		DemandScore:         signals.DemandScore,
		Revenue:             signals.Revenue,
		Trend:               signals.Trend,
		OpportunityLevel:    signals.OpportunityLevel,
		Recommendation:      outcome.Text,
		RevenueHistory:      charts.RevenueHistory,
		TrafficDistribution: charts.TrafficDistribution,
		Competitors:         signals.Competitors,
	}
	res.Normalize()
	return AnalysisRun{Result: res, Outcome: outcome}, nil
}

// Converse runs the agent over a chat history of user and assistant turns.
func (o *Orchestrator) Converse(ctx context.Context, userID string, history []models.ChatMessage) (RunOutcome, error) {
	msgs := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case models.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}
	return o.run(ctx, userID, msgs)
}

// run executes the bounded tool loop. Challenge hits are recorded but never
// stop the loop.
func (o *Orchestrator) run(ctx context.Context, userID string, input []*schema.Message) (RunOutcome, error) {
	var out RunOutcome

	session, err := o.provider.CreateSession(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("creating connector session: %w", err)
	}

	tools, err := session.Tools(ctx)
	if err != nil {
		return out, fmt.Errorf("discovering tools: %w", err)
	}
	tools = FilterTools(tools)

	bound, err := o.bindTools(tools)
	if err != nil {
		return out, fmt.Errorf("binding tools: %w", err)
	}

	history := make([]*schema.Message, 0, len(input)+1)
	history = append(history, schema.SystemMessage(BuildSystemPrompt(o.now())))
	history = append(history, input...)

	for step := 1; step <= o.maxSteps; step++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return out, fmt.Errorf("waiting for model slot: %w", err)
			}
		}

		reply, err := bound.Generate(ctx, history)
		if err != nil {
			return out, fmt.Errorf("model call at step %d: %w", step, err)
		}
		out.Steps = step
		history = append(history, reply)
		out.Text = reply.Content
		if reply.ResponseMeta != nil {
			out.FinishReason = reply.ResponseMeta.FinishReason
		}

		if len(reply.ToolCalls) == 0 {
			break
		}

		for _, call := range reply.ToolCalls {
			content, challenged := o.execute(ctx, session, tools, call, step)
			out.ToolCalls++
			if challenged {
				out.ChallengeDetected = true
				out.Challenges++
				metrics.RecordChallenge()
				o.logger.Warn("bot challenge detected in tool result",
					"user_id", userID, "step", step, "tool", call.Function.Name)
			}
			history = append(history, schema.ToolMessage(content, call.ID, schema.WithToolName(call.Function.Name)))
		}
	}

	if IsChallengeResponse(out.Text) {
		out.ChallengeDetected = true
		out.Challenges++
		metrics.RecordChallenge()
		o.logger.Warn("bot challenge detected in final text", "user_id", userID)
	}

	out.Transcript = history
	metrics.ObserveAgentSteps(out.Steps)
	return out, nil
}

// bindTools binds the filtered tools to the model. An empty set runs the
// bare model because tool-calling clients refuse an empty binding.
func (o *Orchestrator) bindTools(tools map[string]connector.ToolSpec) (model.BaseChatModel, error) {
	infos := toolInfos(tools, o.logger)
	if len(infos) == 0 {
		o.logger.Warn("no tools available after filtering")
		return o.model, nil
	}
	return o.model.WithTools(infos)
}

// execute runs one tool call and returns the tool message content and
// whether it looked like a bot challenge. Failures become message content.
func (o *Orchestrator) execute(ctx context.Context, session connector.Session, tools map[string]connector.ToolSpec, call schema.ToolCall, step int) (string, bool) {
	name := call.Function.Name
	o.logger.Info("tool call", "step", step, "tool", name)

	if _, ok := tools[name]; !ok {
		metrics.RecordToolCall(metrics.UnknownTool, false)
		return fmt.Sprintf("Tool %s is not available. Use only the tools you were given.", name), false
	}

	args := json.RawMessage(strings.TrimSpace(call.Function.Arguments))
	if len(args) > 0 && !json.Valid(args) {
		metrics.RecordToolCall(name, false)
		return fmt.Sprintf("Tool %s failed: arguments are not valid JSON.", name), false
	}

	result, err := session.Execute(ctx, name, args)
	challenged := IsChallengeResponse(result)
	if err != nil {
		metrics.RecordToolCall(name, false)
		o.logger.Warn("tool execution failed", "step", step, "tool", name, "error", err)
		challenged = challenged || IsChallengeResponse(err.Error())
		content := fmt.Sprintf("Tool %s failed: %v", name, err)
		if len(result) > 0 && string(result) != "null" {
			content += "\n" + string(result)
		}
		return content, challenged
	}

	metrics.RecordToolCall(name, true)
	if len(result) == 0 {
		return "null", challenged
	}
	return string(result), challenged
}

// BlockedResult is the degraded record returned when a provider answered
// with a bot challenge. partial is the model's last text, kept verbatim.
func BlockedResult(productName, partial string) *models.AnalysisResult {
	var b strings.Builder
	b.WriteString("The data provider blocked the request with a CAPTCHA (bot challenge) instead of returning data, so this analysis is incomplete.\n\n")
	b.WriteString("Likely causes:\n")
	b.WriteString("- Rate limiting by the provider after too many requests\n")
	b.WriteString("- Bot detection on the provider's side\n")
	b.WriteString("- Stale or expired credentials for the connected account\n\n")
	if strings.TrimSpace(partial) != "" {
		b.WriteString("Partial agent output:\n")
		b.WriteString(partial)
		b.WriteString("\n\n")
	}
	b.WriteString("Try again in a few minutes, re-authenticate the Jungle Scout and Semrush connections, or switch to mock mode to explore the dashboard.")

	res := &models.AnalysisResult{
		Name:             productName,
		DemandScore:      0,
		Revenue:          models.RevenueBlocked,
		Trend:            models.TrendStable,
		OpportunityLevel: models.OpportunityLow,
		Recommendation:   b.String(),
	}
	res.Normalize()
	return res
}
