package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"dashboard-backend/internal/logger"
	"dashboard-backend/internal/models"
	"dashboard-backend/internal/services"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) error
}

type AuthHandler struct {
	authService authService
	log         *zap.Logger
}

func NewAuthHandler(authService authService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	if err := h.authService.Login(r.Context(), req); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Success: true})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(detail string) models.ErrorResponse {
	return models.ErrorResponse{Detail: detail}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		validation   *services.ValidationError
		unauthorized *services.UnauthorizedError
		upstream     *services.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResp(validation.Message))
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResp(unauthorized.Message))
	case errors.Is(err, services.ErrChatBusy):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("Chat service is busy, try again later"))
	case errors.As(err, &upstream):
		status, detail := upstreamResponse(upstream)
		writeJSON(w, status, errorResp(detail))
	default:
		logger.FromContext(r.Context(), log).Error("unhandled error", zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResp("An unexpected error occurred"))
	}
}

// upstreamResponse maps a failed completion call to the status and detail shown to the caller.
func upstreamResponse(e *services.UpstreamError) (int, string) {
	switch e.Kind {
	case services.UpstreamNetwork:
		if e.Timeout() {
			return http.StatusGatewayTimeout, "Chat service timed out"
		}
		return http.StatusBadGateway, "Chat service is unreachable"
	case services.UpstreamStatus:
		if e.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, "Chat service is rate limited, try again later"
		}
		return http.StatusBadGateway, "Chat service returned an error"
	default:
		return http.StatusBadGateway, "Chat service returned an invalid response"
	}
}
