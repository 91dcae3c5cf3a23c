// Package composio implements connector.Provider over the Composio v3 REST API.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiranshivaraju/nichescout/internal/connector"
)

// MetaToolkit is the toolkit holding the connector's own search and
// multi-execute tools. It never needs a connected account.
const MetaToolkit = "composio"

const (
	pageSize = 200
	maxPages = 20
)

// Client talks to the Composio HTTP API.
type Client struct {
	baseURL       string
	apiKey        string
	toolkits      []string
	authConfigIDs map[string]string
	client        *http.Client
}

// NewClient creates a Composio client. toolkits selects which toolkits'
// tools are discovered; authConfigIDs maps a toolkit slug to the auth
// config used when linking a new account.
func NewClient(baseURL, apiKey string, toolkits []string, authConfigIDs map[string]string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		toolkits:      toolkits,
		authConfigIDs: authConfigIDs,
		client:        &http.Client{Timeout: timeout},
	}
}

// CreateSession returns a session bound to userID.
func (c *Client) CreateSession(_ context.Context, userID string) (connector.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("creating session: empty user id")
	}
	return &Session{client: c, userID: userID}, nil
}

// Session is a user-scoped Composio session.
type Session struct {
	client *Client
	userID string
}

func (s *Session) Tools(ctx context.Context) (map[string]connector.ToolSpec, error) {
	tools := make(map[string]connector.ToolSpec)
	for _, toolkit := range s.client.toolkits {
		cursor := ""
		for page := 0; page < maxPages; page++ {
			params := url.Values{
				"toolkit_slug": {toolkit},
				"limit":        {fmt.Sprint(pageSize)},
			}
			if cursor != "" {
				params.Set("cursor", cursor)
			}

			var resp toolsResponse
			if err := s.client.do(ctx, http.MethodGet, "/tools", params, nil, &resp); err != nil {
				return nil, fmt.Errorf("listing %s tools: %w", toolkit, err)
			}
			for _, item := range resp.Items {
				spec := connector.ToolSpec{
					Name:        item.Slug,
					Toolkit:     item.Toolkit.Slug,
					Description: item.Description,
					Parameters:  item.InputParameters,
				}
				if spec.Toolkit == "" {
					spec.Toolkit = toolkit
				}
				tools[spec.Name] = spec
			}

			if resp.NextCursor == "" {
				break
			}
			cursor = resp.NextCursor
		}
	}
	return tools, nil
}

func (s *Session) Execute(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage(`{}`)
	}

	req := executeRequest{UserID: s.userID, Arguments: args}
	var resp executeResponse
	if err := s.client.do(ctx, http.MethodPost, "/tools/execute/"+url.PathEscape(tool), nil, req, &resp); err != nil {
		return nil, fmt.Errorf("executing %s: %w", tool, err)
	}

	data := resp.Data
	if len(data) == 0 {
		data = json.RawMessage(`null`)
	}
	if !resp.Successful {
		msg := resp.Error
		if msg == "" {
			msg = "unsuccessful"
		}
		return data, fmt.Errorf("%w: %s: %s", connector.ErrToolExecution, tool, msg)
	}
	return data, nil
}

func (s *Session) Toolkits(ctx context.Context) ([]connector.ToolkitConnection, error) {
	accounts, err := s.accounts(ctx, "", "ACTIVE")
	if err != nil {
		return nil, err
	}

	byToolkit := make(map[string]accountItem, len(accounts))
	for _, a := range accounts {
		if _, seen := byToolkit[a.Toolkit.Slug]; !seen {
			byToolkit[a.Toolkit.Slug] = a
		}
	}

	out := make([]connector.ToolkitConnection, 0, len(s.client.toolkits))
	for _, slug := range s.client.toolkits {
		if slug == MetaToolkit {
			continue
		}
		conn := connector.ToolkitConnection{Toolkit: slug}
		if a, ok := byToolkit[slug]; ok {
			conn.Connected = true
			conn.AccountID = a.ID
			conn.Status = a.Status
		}
		out = append(out, conn)
	}
	return out, nil
}

func (s *Session) Authorize(ctx context.Context, toolkit string) (connector.AuthRequest, error) {
	authConfigID := s.client.authConfigIDs[toolkit]
	if authConfigID == "" {
		return connector.AuthRequest{}, fmt.Errorf("%w: %s", connector.ErrNoAuthConfig, toolkit)
	}

	req := linkRequest{AuthConfigID: authConfigID, UserID: s.userID}
	var resp linkResponse
	if err := s.client.do(ctx, http.MethodPost, "/connected_accounts/link", nil, req, &resp); err != nil {
		return connector.AuthRequest{}, fmt.Errorf("authorizing %s: %w", toolkit, err)
	}
	if resp.RedirectURL == "" {
		return connector.AuthRequest{}, fmt.Errorf("%w: %s", connector.ErrNoRedirectURL, toolkit)
	}

	return connector.AuthRequest{
		RedirectURL:  resp.RedirectURL,
		Instructions: fmt.Sprintf("Open the link to connect your %s account.", toolkit),
	}, nil
}

func (s *Session) Disconnect(ctx context.Context, toolkit string) (string, error) {
	accounts, err := s.accounts(ctx, toolkit, "")
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("%w: %s", connector.ErrNoConnection, toolkit)
	}

	id := accounts[0].ID
	if err := s.client.do(ctx, http.MethodDelete, "/connected_accounts/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return "", fmt.Errorf("deleting account %s: %w", id, err)
	}
	return id, nil
}

func (s *Session) accounts(ctx context.Context, toolkit, status string) ([]accountItem, error) {
	params := url.Values{
		"user_ids": {s.userID},
		"limit":    {fmt.Sprint(pageSize)},
	}
	if toolkit != "" {
		params.Set("toolkit_slugs", toolkit)
	}
	if status != "" {
		params.Set("statuses", status)
	}

	var resp accountsResponse
	if err := s.client.do(ctx, http.MethodGet, "/connected_accounts", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing connected accounts: %w", err)
	}
	return resp.Items, nil
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", connector.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", connector.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding composio response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", connector.ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", connector.ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", connector.ErrUnreachable, err)
}

// --- Composio wire types ---

type toolsResponse struct {
	Items      []toolItem `json:"items"`
	NextCursor string     `json:"next_cursor"`
}

type toolItem struct {
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Toolkit         slugRef         `json:"toolkit"`
	InputParameters json.RawMessage `json:"input_parameters"`
}

type slugRef struct {
	Slug string `json:"slug"`
}

type executeRequest struct {
	UserID    string          `json:"user_id"`
	Arguments json.RawMessage `json:"arguments"`
}

type executeResponse struct {
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Successful bool            `json:"successful"`
}

type accountsResponse struct {
	Items []accountItem `json:"items"`
}

type accountItem struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Toolkit slugRef `json:"toolkit"`
}

type linkRequest struct {
	AuthConfigID string `json:"auth_config_id"`
	UserID       string `json:"user_id"`
}

type linkResponse struct {
	RedirectURL        string `json:"redirect_url"`
	ConnectedAccountID string `json:"connected_account_id"`
}

// Compile-time checks.
var (
	_ connector.Provider = (*Client)(nil)
	_ connector.Session  = (*Session)(nil)
)
