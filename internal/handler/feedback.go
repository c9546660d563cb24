package handler

import (
	"net/http"

	"realtychat/internal/model"

	"github.com/gin-gonic/gin"
)

var validActions = map[string]bool{
	"click":        true,
	"contact":      true,
	"view_details": true,
}

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	catalog ListingCatalog
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(catalog ListingCatalog) *FeedbackHandler {
	return &FeedbackHandler{catalog: catalog}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !validActions[req.Action] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: click, contact, view_details"})
		return
	}

	if err := h.catalog.LogFeedback(c.Request.Context(), req.SessionID, req.ListingID, req.Action); err != nil {
		catalogError(c, "Failed to log feedback", err)
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
