package composio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/nichescout/internal/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func composioServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newTestSession(t *testing.T, baseURL string, toolkits ...string) connector.Session {
	t.Helper()
	c := NewClient(baseURL, "ck-test", toolkits, map[string]string{"junglescout": "ac_js"}, 5*time.Second)
	s, err := c.CreateSession(context.Background(), "user-1")
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// --- tests ---

func TestCreateSession_EmptyUser(t *testing.T) {
	c := NewClient("http://localhost", "k", nil, nil, time.Second)
	_, err := c.CreateSession(context.Background(), "")
	require.Error(t, err)
}

func TestTools_DiscoversEveryToolkitAndPaginates(t *testing.T) {
	calls := 0
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/tools", r.URL.Path)
		assert.Equal(t, "ck-test", r.Header.Get("x-api-key"))

		q := r.URL.Query()
		switch q.Get("toolkit_slug") {
		case "composio":
			writeJSON(w, map[string]any{"items": []map[string]any{
				{"slug": "COMPOSIO_SEARCH_TOOLS", "description": "search", "toolkit": map[string]string{"slug": "composio"}},
				{"slug": "COMPOSIO_REMOTE_BASH_TOOL", "description": "bash", "toolkit": map[string]string{"slug": "composio"}},
			}})
		case "junglescout":
			if q.Get("cursor") == "" {
				writeJSON(w, map[string]any{
					"items": []map[string]any{{
						"slug":             "JUNGLESCOUT_QUERY_THE_PRODUCT_DATABASE",
						"description":      "product db",
						"input_parameters": map[string]any{"type": "object"},
					}},
					"next_cursor": "page2",
				})
				return
			}
			writeJSON(w, map[string]any{"items": []map[string]any{
				{"slug": "JUNGLESCOUT_GET_SALES_ESTIMATES", "toolkit": map[string]string{"slug": "junglescout"}},
			}})
		default:
			t.Errorf("unexpected toolkit %q", q.Get("toolkit_slug"))
		}
	})

	s := newTestSession(t, ts.URL, "composio", "junglescout")
	tools, err := s.Tools(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Len(t, tools, 4)
	assert.Contains(t, tools, "COMPOSIO_REMOTE_BASH_TOOL")

	db := tools["JUNGLESCOUT_QUERY_THE_PRODUCT_DATABASE"]
	assert.Equal(t, "junglescout", db.Toolkit, "toolkit falls back to the requested slug")
	assert.JSONEq(t, `{"type":"object"}`, string(db.Parameters))
}

func TestTools_ServerError(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	s := newTestSession(t, ts.URL, "semrush")
	_, err := s.Tools(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrUpstream))
	assert.Contains(t, err.Error(), "boom")
}

func TestTools_Unauthorized(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	s := newTestSession(t, ts.URL, "semrush")
	_, err := s.Tools(context.Background())
	assert.ErrorIs(t, err, connector.ErrUnauthorized)
}

func TestExecute_Success(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tools/execute/SEMRUSH_DOMAIN_OVERVIEW", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body.UserID)
		assert.JSONEq(t, `{"domain":"glow.com","database":"us"}`, string(body.Arguments))

		writeJSON(w, map[string]any{"data": map[string]any{"traffic": 1200}, "successful": true})
	})

	s := newTestSession(t, ts.URL)
	out, err := s.Execute(context.Background(), "SEMRUSH_DOMAIN_OVERVIEW", json.RawMessage(`{"domain":"glow.com","database":"us"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"traffic":1200}`, string(out))
}

func TestExecute_EmptyArgumentsSendObject(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `{}`, string(body.Arguments))
		writeJSON(w, map[string]any{"data": nil, "successful": true})
	})

	s := newTestSession(t, ts.URL)
	out, err := s.Execute(context.Background(), "COMPOSIO_SEARCH_TOOLS", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestExecute_UnsuccessfulKeepsData(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data":       map[string]any{"html": "https://geo.captcha-delivery.com/captcha"},
			"error":      "403 blocked",
			"successful": false,
		})
	})

	s := newTestSession(t, ts.URL)
	out, err := s.Execute(context.Background(), "JUNGLESCOUT_GET_SALES_ESTIMATES", json.RawMessage(`{"asin":"B0"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrToolExecution)
	assert.Contains(t, err.Error(), "403 blocked")
	assert.Contains(t, string(out), "captcha-delivery.com")
}

func TestToolkits_ReportsConfiguredToolkits(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/connected_accounts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "user-1", q.Get("user_ids"))
		assert.Equal(t, "ACTIVE", q.Get("statuses"))
		writeJSON(w, map[string]any{"items": []map[string]any{
			{"id": "ca_1", "status": "ACTIVE", "toolkit": map[string]string{"slug": "junglescout"}},
			{"id": "ca_2", "status": "ACTIVE", "toolkit": map[string]string{"slug": "github"}},
		}})
	})

	s := newTestSession(t, ts.URL, "composio", "junglescout", "semrush")
	conns, err := s.Toolkits(context.Background())
	require.NoError(t, err)

	require.Len(t, conns, 2)
	assert.Equal(t, connector.ToolkitConnection{Toolkit: "junglescout", Connected: true, AccountID: "ca_1", Status: "ACTIVE"}, conns[0])
	assert.Equal(t, connector.ToolkitConnection{Toolkit: "semrush"}, conns[1])
}

func TestAuthorize(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/connected_accounts/link", r.URL.Path)
		var body linkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ac_js", body.AuthConfigID)
		assert.Equal(t, "user-1", body.UserID)
		writeJSON(w, map[string]any{"redirect_url": "https://connect.composio.dev/link/abc"})
	})

	s := newTestSession(t, ts.URL)
	req, err := s.Authorize(context.Background(), "junglescout")
	require.NoError(t, err)
	assert.Equal(t, "https://connect.composio.dev/link/abc", req.RedirectURL)
	assert.Contains(t, req.Instructions, "junglescout")
}

func TestAuthorize_MissingAuthConfig(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	_, err := s.Authorize(context.Background(), "semrush")
	assert.ErrorIs(t, err, connector.ErrNoAuthConfig)
}

func TestAuthorize_NoRedirectURL(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"connected_account_id": "ca_9"})
	})

	s := newTestSession(t, ts.URL)
	_, err := s.Authorize(context.Background(), "junglescout")
	assert.ErrorIs(t, err, connector.ErrNoRedirectURL)
}

func TestDisconnect(t *testing.T) {
	deleted := ""
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "semrush", r.URL.Query().Get("toolkit_slugs"))
			writeJSON(w, map[string]any{"items": []map[string]any{{"id": "ca_42", "toolkit": map[string]string{"slug": "semrush"}}}})
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	})

	s := newTestSession(t, ts.URL)
	id, err := s.Disconnect(context.Background(), "semrush")
	require.NoError(t, err)
	assert.Equal(t, "ca_42", id)
	assert.Equal(t, "/connected_accounts/ca_42", deleted)
}

func TestDisconnect_NoConnection(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s", r.Method)
		}
		writeJSON(w, map[string]any{"items": []any{}})
	})

	s := newTestSession(t, ts.URL)
	_, err := s.Disconnect(context.Background(), "shopify")
	assert.ErrorIs(t, err, connector.ErrNoConnection)
}

func TestUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	s := newTestSession(t, url, "semrush")
	_, err := s.Tools(context.Background())
	assert.ErrorIs(t, err, connector.ErrUnreachable)
}

func TestContextCanceled(t *testing.T) {
	ts := composioServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newTestSession(t, ts.URL, "semrush")
	_, err := s.Tools(ctx)
	assert.ErrorIs(t, err, connector.ErrTimeout)
}
