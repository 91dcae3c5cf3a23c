// Package connector defines the contract with the third-party connector
// service that brokers tool access to the demand and SEO data providers.
package connector

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors for connector failures.
var (
	ErrUnreachable   = errors.New("connector unreachable")
	ErrTimeout       = errors.New("connector timeout")
	ErrUpstream      = errors.New("connector upstream error")
	ErrUnauthorized  = errors.New("connector rejected credentials")
	ErrToolExecution = errors.New("tool execution failed")
	ErrNoConnection  = errors.New("no connection found")
	ErrNoAuthConfig  = errors.New("no auth config for toolkit")
	ErrNoRedirectURL = errors.New("connector returned no redirect url")
)

// Provider creates per-user sessions.
type Provider interface {
	CreateSession(ctx context.Context, userID string) (Session, error)
}

// Session is a user-scoped view of the connector service.
type Session interface {
	// Tools returns the tools available to the user keyed by tool name.
	Tools(ctx context.Context) (map[string]ToolSpec, error)
	// Execute runs a tool with JSON arguments and returns its raw JSON result.
	Execute(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error)
	Toolkits(ctx context.Context) ([]ToolkitConnection, error)
	Authorize(ctx context.Context, toolkit string) (AuthRequest, error)
	// Disconnect removes the user's connected account for a toolkit and
	// returns its id. Returns ErrNoConnection when nothing is connected.
	Disconnect(ctx context.Context, toolkit string) (string, error)
}

// ToolSpec describes one callable tool. Parameters holds its JSON schema.
type ToolSpec struct {
	Name        string
	Toolkit     string
	Description string
	Parameters  json.RawMessage
}

// ToolkitConnection reports whether the user has an active account for a toolkit.
type ToolkitConnection struct {
	Toolkit   string
	Connected bool
	AccountID string
	Status    string
}

// AuthRequest is the outcome of starting an authorization flow.
type AuthRequest struct {
	RedirectURL  string
	Instructions string
}
