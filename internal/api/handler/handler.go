// Package handler implements the NicheScout HTTP endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/nichescout/internal/api/middleware"
	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/internal/connections"
	"github.com/kiranshivaraju/nichescout/pkg/models"
)

// Analyzer runs and re-parses product analyses.
type Analyzer interface {
	AnalyzeProduct(ctx context.Context, productName, userID string, useMockData bool) (*models.AnalysisResult, error)
	ParseAgentResponse(ctx context.Context, text, productName string) (*models.AnalysisResult, error)
	Chat(ctx context.Context, userID string, messages []models.ChatMessage) (*models.ChatReply, error)
}

// ConnectionManager reports and changes a user's toolkit connections.
type ConnectionManager interface {
	Status(ctx context.Context, userID string) (*connections.Summary, error)
	AuthURL(ctx context.Context, userID, toolkit string) (string, error)
	Disconnect(ctx context.Context, userID, toolkit string) (string, error)
}

// HistoryReader reads stored analyses scoped to their owner.
type HistoryReader interface {
	GetAnalysis(ctx context.Context, id uuid.UUID, userID string) (*models.Analysis, error)
	ListAnalyses(ctx context.Context, userID string, limit int) ([]*models.Analysis, error)
}

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

const maxBodyBytes = 1 << 20

// userID reads the anonymous id, answering 400 when the identity
// middleware did not run.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "MISSING_USER", "Missing user identity", nil)
	}
	return id, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "Request body too large", nil)
			return false
		}
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}
