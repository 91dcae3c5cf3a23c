// Package mock provides in-memory connector sessions for tests.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kiranshivaraju/nichescout/internal/connector"
)

// ExecCall records one Execute invocation.
type ExecCall struct {
	UserID string
	Tool   string
	Args   json.RawMessage
}

// Provider satisfies connector.Provider. Every session it creates shares
// the Provider's functions and call log.
type Provider struct {
	CreateErr error

	ToolsFunc      func(ctx context.Context) (map[string]connector.ToolSpec, error)
	ExecuteFunc    func(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error)
	ToolkitsFunc   func(ctx context.Context, userID string) ([]connector.ToolkitConnection, error)
	AuthorizeFunc  func(ctx context.Context, userID, toolkit string) (connector.AuthRequest, error)
	DisconnectFunc func(ctx context.Context, userID, toolkit string) (string, error)

	mu       sync.Mutex
	sessions []string
	execs    []ExecCall
}

// NewProvider returns a Provider offering tools, where each tool answers
// with results[name] or an empty JSON object.
func NewProvider(tools []string, results map[string]string) *Provider {
	specs := make(map[string]connector.ToolSpec, len(tools))
	for _, name := range tools {
		specs[name] = connector.ToolSpec{
			Name:        name,
			Description: name,
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		}
	}
	return &Provider{
		ToolsFunc: func(context.Context) (map[string]connector.ToolSpec, error) {
			out := make(map[string]connector.ToolSpec, len(specs))
			for k, v := range specs {
				out[k] = v
			}
			return out, nil
		},
		ExecuteFunc: func(_ context.Context, tool string, _ json.RawMessage) (json.RawMessage, error) {
			if r, ok := results[tool]; ok {
				return json.RawMessage(r), nil
			}
			return json.RawMessage(`{}`), nil
		},
	}
}

func (p *Provider) CreateSession(_ context.Context, userID string) (connector.Session, error) {
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.mu.Lock()
	p.sessions = append(p.sessions, userID)
	p.mu.Unlock()
	return &session{p: p, userID: userID}, nil
}

// Sessions returns the user ids sessions were created for.
func (p *Provider) Sessions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sessions...)
}

// Executions returns every Execute call in order.
func (p *Provider) Executions() []ExecCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExecCall(nil), p.execs...)
}

type session struct {
	p      *Provider
	userID string
}

func (s *session) Tools(ctx context.Context) (map[string]connector.ToolSpec, error) {
	if s.p.ToolsFunc == nil {
		return map[string]connector.ToolSpec{}, nil
	}
	return s.p.ToolsFunc(ctx)
}

func (s *session) Execute(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error) {
	s.p.mu.Lock()
	s.p.execs = append(s.p.execs, ExecCall{UserID: s.userID, Tool: tool, Args: args})
	s.p.mu.Unlock()

	if s.p.ExecuteFunc == nil {
		return json.RawMessage(`{}`), nil
	}
	return s.p.ExecuteFunc(ctx, tool, args)
}

func (s *session) Toolkits(ctx context.Context) ([]connector.ToolkitConnection, error) {
	if s.p.ToolkitsFunc == nil {
		return nil, nil
	}
	return s.p.ToolkitsFunc(ctx, s.userID)
}

func (s *session) Authorize(ctx context.Context, toolkit string) (connector.AuthRequest, error) {
	if s.p.AuthorizeFunc == nil {
		return connector.AuthRequest{RedirectURL: fmt.Sprintf("https://connect.example.com/%s?user=%s", toolkit, s.userID)}, nil
	}
	return s.p.AuthorizeFunc(ctx, s.userID, toolkit)
}

func (s *session) Disconnect(ctx context.Context, toolkit string) (string, error) {
	if s.p.DisconnectFunc == nil {
		return "", fmt.Errorf("%w: %s", connector.ErrNoConnection, toolkit)
	}
	return s.p.DisconnectFunc(ctx, s.userID, toolkit)
}

// Compile-time check that Provider implements connector.Provider.
var _ connector.Provider = (*Provider)(nil)
