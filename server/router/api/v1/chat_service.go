package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ChatRequest is one user message.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ChatResponse is the assistant's reply for one turn.
type ChatResponse struct {
	Reply     string `json:"reply"`
	RequestID string `json:"request_id"`
}

// Chat processes one conversation turn.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	requestID := uuid.NewString()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	if !s.limiter.Allow(req.UserID) {
		slog.Warn("chat request rate limited", "user", req.UserID, "request_id", requestID)
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	}

	reply, err := s.Engine.ProcessTurn(c.Request().Context(), req.Message, req.UserID)
	if err != nil {
		slog.Error("failed to process chat turn", "user", req.UserID, "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Reply:     reply,
		RequestID: requestID,
	})
}

// ResetSession removes a user's stored conversation state.
// DELETE /api/v1/chat/sessions/:user
func (s *APIV1Service) ResetSession(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user is required"})
	}
	if err := s.Engine.Reset(c.Request().Context(), userID); err != nil {
		slog.Error("failed to reset session", "user", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
