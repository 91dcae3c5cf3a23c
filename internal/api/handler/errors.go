package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/nichescout/internal/agent"
	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/internal/connections"
	"github.com/kiranshivaraju/nichescout/internal/connector"
)

// writeServiceError maps service errors onto HTTP responses. Unclassified
// failures answer status with fallbackCode and the raw error as details.
func writeServiceError(w http.ResponseWriter, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, agent.ErrEmptyProductName),
		errors.Is(err, agent.ErrEmptyText),
		errors.Is(err, agent.ErrNoMessages),
		errors.Is(err, agent.ErrTooManyMessages),
		errors.Is(err, agent.ErrInvalidRole):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, connections.ErrInvalidToolkit):
		response.Error(w, http.StatusBadRequest, "INVALID_TOOLKIT", err.Error(),
			map[string]any{"validToolkits": connections.ValidToolkits()})
	case errors.Is(err, connector.ErrNoConnection):
		response.Error(w, http.StatusNotFound, "NO_CONNECTION", err.Error(), nil)
	case errors.Is(err, agent.ErrLiveModeDisabled):
		response.Error(w, http.StatusServiceUnavailable, "LIVE_MODE_DISABLED",
			"Live analysis is disabled on this server; use mock data", nil)
	case errors.Is(err, connector.ErrUnauthorized):
		response.Error(w, http.StatusBadGateway, "CONNECTOR_UNAUTHORIZED",
			"The data connector rejected the server credentials", nil)
	case errors.Is(err, connector.ErrUnreachable), errors.Is(err, connector.ErrUpstream):
		response.Error(w, http.StatusBadGateway, "CONNECTOR_UNAVAILABLE",
			"The data connector is not available", err.Error())
	case errors.Is(err, connector.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		response.Error(w, http.StatusGatewayTimeout, "TIMEOUT",
			"The request took too long and was cancelled", nil)
	default:
		slog.Error(fallbackMessage, "error", err)
		response.Error(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, err.Error())
	}
}
