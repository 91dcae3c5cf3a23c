package handler

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
)

type analyzeRequest struct {
	Product     string `json:"product"`
	UseMockData *bool  `json:"useMockData"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/analyze.
// Requests that omit useMockData get defaultMock.
func NewAnalyzeHandler(svc Analyzer, defaultMock bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		var req analyzeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Product) == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Product name is required", nil)
			return
		}

		useMock := defaultMock
		if req.UseMockData != nil {
			useMock = *req.UseMockData
		}

		result, err := svc.AnalyzeProduct(r.Context(), req.Product, uid, useMock)
		if err != nil {
			writeServiceError(w, err, "ANALYSIS_FAILED", "Analysis failed")
			return
		}
		response.JSON(w, result)
	}
}

type parseRequest struct {
	Text        string `json:"text"`
	ProductName string `json:"productName"`
}

// NewParseHandler returns an http.HandlerFunc for POST /api/parse-dashboard.
func NewParseHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing 'text' field", nil)
			return
		}

		result, err := svc.ParseAgentResponse(r.Context(), req.Text, req.ProductName)
		if err != nil {
			writeServiceError(w, err, "PARSE_FAILED", "Failed to parse analysis data")
			return
		}
		response.JSON(w, result)
	}
}
