package handler

import (
	"fmt"
	"net/http"

	"realtychat/internal/model"

	"github.com/gin-gonic/gin"
)

// MaxEmbeddingBatch caps the items accepted in one batch request
const MaxEmbeddingBatch = 500

// EmbeddingHandler accepts precomputed listing embeddings for the
// similar-listings lookup
type EmbeddingHandler struct {
	catalog ListingCatalog
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(catalog ListingCatalog) *EmbeddingHandler {
	return &EmbeddingHandler{catalog: catalog}
}

// BatchUpdate handles POST /api/v1/embeddings/batch. The batch is validated
// as a whole and rejected with every problem listed; only a clean batch
// reaches the catalog. Rows the catalog could not write come back as a 206.
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	switch n := len(req.Embeddings); {
	case n == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	case n > MaxEmbeddingBatch:
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Batch of %d embeddings exceeds the limit of %d", n, MaxEmbeddingBatch),
		})
		return
	}

	if problems := validateEmbeddings(req.Embeddings); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  fmt.Sprintf("%d invalid embeddings", len(problems)),
			"errors": problems,
		})
		return
	}

	success, errs := h.catalog.UpdateEmbeddings(c.Request.Context(), req.Embeddings)

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}

func validateEmbeddings(items []model.EmbeddingItem) []string {
	var problems []string
	seen := make(map[int64]int, len(items))
	for i, item := range items {
		if item.ListingID <= 0 {
			problems = append(problems, fmt.Sprintf("index %d: listing_id must be positive", i))
		} else if first, dup := seen[item.ListingID]; dup {
			problems = append(problems, fmt.Sprintf("index %d: listing_id %d repeats index %d", i, item.ListingID, first))
		} else {
			seen[item.ListingID] = i
		}

		if len(item.Embedding) != model.EmbeddingDims {
			problems = append(problems, fmt.Sprintf("index %d: dimension %d, expected %d", i, len(item.Embedding), model.EmbeddingDims))
		}
	}
	return problems
}
