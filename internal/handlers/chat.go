package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"dashboard-backend/internal/models"
	"dashboard-backend/internal/services"
)

type chatService interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type ChatHandler struct {
	chatService chatService
	log         *zap.Logger
}

func NewChatHandler(chatService chatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	if req.Prompt == nil {
		handleServiceError(w, r, h.log, &services.ValidationError{Message: "Prompt is required"})
		return
	}

	reply, err := h.chatService.Reply(r.Context(), *req.Prompt)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
