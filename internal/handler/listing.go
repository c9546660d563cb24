package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"realtychat/internal/model"
	"realtychat/internal/service"

	"github.com/gin-gonic/gin"
)

// ListingCatalog is the listing detail, embedding and feedback side of search
type ListingCatalog interface {
	GetListing(ctx context.Context, listingID int64) (*model.Listing, error)
	SimilarListings(ctx context.Context, listingID int64, limit int) ([]model.ListingCard, error)
	UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error
}

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	catalog      ListingCatalog
	defaultLimit int
	maxLimit     int
}

// NewListingHandler creates a new listing handler
func NewListingHandler(catalog ListingCatalog, defaultLimit, maxLimit int) *ListingHandler {
	if defaultLimit <= 0 {
		defaultLimit = 6
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &ListingHandler{catalog: catalog, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// GetListing handles GET /api/v1/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.catalog.GetListing(c.Request.Context(), listingID)
	if err != nil {
		catalogError(c, "Failed to get listing", err)
		return
	}

	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Similar handles GET /api/v1/listings/:id/similar
func (h *ListingHandler) Similar(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, h.maxLimit)
	}

	cards, err := h.catalog.SimilarListings(c.Request.Context(), listingID, limit)
	if err != nil {
		catalogError(c, "Failed to find similar listings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "items": cards})
}

func listingIDParam(c *gin.Context) (int64, bool) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || listingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return 0, false
	}
	return listingID, true
}

func catalogError(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrCatalogUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg + ": " + err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg + ": " + err.Error()})
}
