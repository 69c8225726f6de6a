package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/response"
	"github.com/patshala/patshala-backend/internal/service"
)

// BatchHandler serves the public storefront catalog.
type BatchHandler struct {
	batchService *service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService *service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// ListBatches godoc
// GET /api/v1/public/batches
// Returns all published batches. No authentication required.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	batches, err := h.batchService.ListPublished(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if batches == nil {
		batches = []model.Batch{}
	}

	response.Success(c, http.StatusOK, gin.H{"batches": batches})
}

// GetBatch godoc
// GET /api/v1/public/batches/:batch_id
// Returns a single published batch.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batch_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	batch, err := h.batchService.Get(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrBatchNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"batch": batch})
}
