package handler

import (
	"net/http"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/pkg/models"
)

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

// NewChatHandler returns an http.HandlerFunc for POST /api/chat.
func NewChatHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		var req chatRequest
		if !decodeBody(w, r, &req) {
			return
		}

		reply, err := svc.Chat(r.Context(), uid, req.Messages)
		if err != nil {
			writeServiceError(w, err, "CHAT_FAILED", "Chat failed")
			return
		}
		response.JSON(w, reply)
	}
}
