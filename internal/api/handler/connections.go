package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/internal/connections"
)

type statusResponse struct {
	UserID string `json:"userId"`
	*connections.Summary
}

// NewConnectionStatusHandler returns an http.HandlerFunc for GET /api/connection-status.
func NewConnectionStatusHandler(svc ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		summary, err := svc.Status(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err, "STATUS_FAILED", "Failed to check connection status")
			return
		}
		response.JSON(w, statusResponse{UserID: uid, Summary: summary})
	}
}

type authResponse struct {
	Toolkit      string `json:"toolkit"`
	AuthURL      string `json:"authUrl"`
	Instructions string `json:"instructions"`
}

// NewAuthHandler returns an http.HandlerFunc for GET /api/auth/{toolkit}.
func NewAuthHandler(svc ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		toolkit := chi.URLParam(r, "toolkit")

		url, err := svc.AuthURL(r.Context(), uid, toolkit)
		if err != nil {
			writeServiceError(w, err, "AUTH_FAILED", "Failed to generate auth URL")
			return
		}
		response.JSON(w, authResponse{
			Toolkit: toolkit,
			AuthURL: url,
			Instructions: fmt.Sprintf("Visit the URL to connect your %s account. After connecting, the agent will be able to access your %s data.",
				toolkit, toolkit),
		})
	}
}

type disconnectResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	DeletedAccountID string `json:"deletedAccountId"`
}

// NewDisconnectHandler returns an http.HandlerFunc for DELETE /api/disconnect/{toolkit}.
func NewDisconnectHandler(svc ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		toolkit := chi.URLParam(r, "toolkit")

		id, err := svc.Disconnect(r.Context(), uid, toolkit)
		if err != nil {
			writeServiceError(w, err, "DISCONNECT_FAILED", "Failed to disconnect")
			return
		}
		response.JSON(w, disconnectResponse{
			Success:          true,
			Message:          fmt.Sprintf("Disconnected %s successfully", toolkit),
			DeletedAccountID: id,
		})
	}
}
