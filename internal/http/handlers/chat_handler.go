// Package handlers – chat endpoints.
//
// ChatHandler exposes the conversational surface: send a message, read a
// session's history, and clear a session. Handlers stay thin: bind, call the
// service, map sentinel errors to HTTP statuses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/services"
	"github.com/auralabs/go-assistant-backend/internal/utils"
)

// AssistantAPI is the subset of the assistant service used by ChatHandler.
type AssistantAPI interface {
	ProcessMessage(ctx context.Context, sessionID, message string) (*services.ChatReply, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// ChatHandler serves the /chat endpoints.
type ChatHandler struct {
	Assistant AssistantAPI
}

// chatRequest is the body of POST /chat. SessionID is optional; a fresh
// session id is minted when it is absent.
type chatRequest struct {
	Message   string `json:"message" binding:"required" example:"Where is my order ORD-20250101120000-0042?"`
	SessionID string `json:"session_id" example:"a1b2c3d4-0000-0000-0000-000000000000"`
}

// chatResponse is the reply envelope for POST /chat.
type chatResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// historyMessage is one turn in GET /chat/:sessionId/history.
type historyMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessage godoc
//
//	@Summary      Send a chat message
//	@Description  Processes one user message and returns the assistant's reply.
//	@Tags         chat
//	@Accept       json
//	@Produce      json
//	@Param        payload  body      chatRequest  true  "Message payload"
//	@Success      200      {object}  chatResponse
//	@Failure      400      {object}  ErrorResponse
//	@Failure      500      {object}  ErrorResponse
//	@Router       /chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.Assistant.ProcessMessage(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, "message must not be empty")
		case errors.Is(err, services.ErrMessageTooLong):
			fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, "message exceeds the maximum length")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, "failed to process message")
		}
		return
	}

	ok(c, http.StatusOK, chatResponse{
		Message:   reply.Message,
		SessionID: reply.SessionID,
		Timestamp: reply.Timestamp,
	})
}

// GetHistory godoc
//
//	@Summary      Get session history
//	@Description  Returns a session's messages in ascending creation order.
//	@Tags         chat
//	@Produce      json
//	@Param        sessionId  path   string  true   "Session identifier"
//	@Param        limit      query  int     false  "Maximum messages (default 100, cap 500)"
//	@Success      200  {object}  map[string]any
//	@Failure      500  {object}  ErrorResponse
//	@Router       /chat/{sessionId}/history [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	limit := utils.ClampLimit(c.Query("limit"), 100, 500)

	msgs, err := h.Assistant.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load history")
		return
	}

	out := make([]historyMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, historyMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	ok(c, http.StatusOK, gin.H{"session_id": sessionID, "messages": out})
}

// ClearHistory godoc
//
//	@Summary      Clear session history
//	@Description  Deletes all stored messages for a session.
//	@Tags         chat
//	@Param        sessionId  path  string  true  "Session identifier"
//	@Success      204
//	@Failure      500  {object}  ErrorResponse
//	@Router       /chat/{sessionId}/history [delete]
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.Assistant.ClearHistory(c.Request.Context(), sessionID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to clear history")
		return
	}
	noContent(c)
}
