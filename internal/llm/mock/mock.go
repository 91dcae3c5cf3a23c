// Package mock provides a scripted tool-calling chat model for tests.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrScriptExhausted is returned when Generate is called more times than
// the model has scripted replies.
var ErrScriptExhausted = errors.New("mock chat model: no scripted reply left")

// ErrNoTools mirrors the OpenAI client, which refuses an empty tool binding.
var ErrNoTools = errors.New("no tools to bind")

// ChatModel satisfies model.ToolCallingChatModel. When GenerateFunc is set
// it answers every call; otherwise Replies are returned in order.
type ChatModel struct {
	GenerateFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
	Replies      []*schema.Message
	BindErr      error

	mu     sync.Mutex
	calls  [][]*schema.Message
	tools  []*schema.ToolInfo
	cursor int
}

// NewScripted returns a model that replies with msgs in order.
func NewScripted(msgs ...*schema.Message) *ChatModel {
	return &ChatModel{Replies: msgs}
}

// NewFailing returns a model whose every call fails with err.
func NewFailing(err error) *ChatModel {
	return &ChatModel{
		GenerateFunc: func(context.Context, []*schema.Message) (*schema.Message, error) {
			return nil, err
		},
	}
}

// NewText returns a model that always answers with content.
func NewText(content string) *ChatModel {
	return &ChatModel{
		GenerateFunc: func(context.Context, []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage(content, nil), nil
		},
	}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	snapshot := append([]*schema.Message(nil), input...)
	m.calls = append(m.calls, snapshot)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, input)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor >= len(m.Replies) {
		return nil, ErrScriptExhausted
	}
	reply := m.Replies[m.cursor]
	m.cursor++
	return reply, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the bound tools and returns the same model so tests
// can inspect calls made through the bound instance.
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if m.BindErr != nil {
		return nil, m.BindErr
	}
	if len(tools) == 0 {
		return nil, ErrNoTools
	}
	m.mu.Lock()
	m.tools = append([]*schema.ToolInfo(nil), tools...)
	m.mu.Unlock()
	return m, nil
}

// Calls returns the message lists passed to Generate, in order.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// Tools returns the tools bound by the last WithTools call.
func (m *ChatModel) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*schema.ToolInfo(nil), m.tools...)
}

// ToolCall builds an assistant message requesting the named tools. Each
// pair is tool name then JSON arguments.
func ToolCall(pairs ...string) *schema.Message {
	var calls []schema.ToolCall
	for i := 0; i+1 < len(pairs); i += 2 {
		calls = append(calls, schema.ToolCall{
			ID:       "call_" + pairs[i],
			Function: schema.FunctionCall{Name: pairs[i], Arguments: pairs[i+1]},
		})
	}
	return schema.AssistantMessage("", calls)
}

// Compile-time check that ChatModel implements ToolCallingChatModel.
var _ model.ToolCallingChatModel = (*ChatModel)(nil)
