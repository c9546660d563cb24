package handler

import (
	"context"
	"net/http"
	"strings"

	"realtychat/internal/model"

	"github.com/gin-gonic/gin"
)

// ChatEngine runs chat turns and manages their sessions
type ChatEngine interface {
	HandleTurn(ctx context.Context, sessionID, text string) (*model.TurnResult, error)
	ResetSession(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*model.SessionState, error)
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chat ChatEngine
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatEngine) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.chat.HandleTurn(c.Request.Context(), strings.TrimSpace(req.SessionID), req.Message)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	state, err := h.chat.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session: " + err.Error()})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chat.ResetSession(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
