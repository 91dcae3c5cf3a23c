package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/internal/store"
)

// NewListAnalysesHandler returns an http.HandlerFunc for GET /api/analyses.
func NewListAnalysesHandler(history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		limit := store.DefaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			limit = store.ClampLimit(n)
		}

		list, err := history.ListAnalyses(r.Context(), uid, limit)
		if err != nil {
			writeServiceError(w, err, "HISTORY_FAILED", "Failed to list analyses")
			return
		}
		response.Collection(w, list, response.ListMeta{
			Limit:   limit,
			Count:   len(list),
			HasMore: len(list) == limit,
		})
	}
}

// NewGetAnalysisHandler returns an http.HandlerFunc for GET /api/analyses/{analysisID}.
func NewGetAnalysisHandler(history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "analysisID must be a UUID", nil)
			return
		}

		a, err := history.GetAnalysis(r.Context(), id, uid)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Analysis not found", nil)
			return
		}
		if err != nil {
			writeServiceError(w, err, "HISTORY_FAILED", "Failed to load analysis")
			return
		}
		response.JSON(w, a)
	}
}
