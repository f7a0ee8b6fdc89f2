package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/service/batches"
)

// BatchService is the batch lifecycle used by BatchHandler.
type BatchService interface {
	CreateBatch(ctx context.Context, in batches.NewBatch) (models.Batch, error)
	ApproveBatch(ctx context.Context, id string) (models.Batch, error)
	CancelBatch(ctx context.Context, id string) (models.Batch, error)
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	ListBatches(ctx context.Context, date time.Time) ([]models.Batch, error)
}

// BatchHandler exposes feed batch preparation, approval and cancellation.
type BatchHandler struct {
	svc    BatchService
	logger *zap.Logger
}

// NewBatchHandler constructs the batch HTTP adapter.
func NewBatchHandler(svc BatchService, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{svc: svc, logger: logger}
}

// Create registers a batch in PREPARANDO.
func (h *BatchHandler) Create(c *gin.Context) {
	var in batches.NewBatch
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	batch, err := h.svc.CreateBatch(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// Approve concludes a batch and deducts stock.
func (h *BatchHandler) Approve(c *gin.Context) {
	h.byID(c, h.svc.ApproveBatch)
}

// Cancel cancels a preparing batch.
func (h *BatchHandler) Cancel(c *gin.Context) {
	h.byID(c, h.svc.CancelBatch)
}

func (h *BatchHandler) byID(c *gin.Context, apply func(context.Context, string) (models.Batch, error)) {
	batch, err := apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Get returns a batch by id.
func (h *BatchHandler) Get(c *gin.Context) {
	h.byID(c, h.svc.GetBatch)
}

// List returns the batches of the date query parameter.
func (h *BatchHandler) List(c *gin.Context) {
	date, ok := parseDate(c, c.Query("date"))
	if !ok {
		return
	}
	list, err := h.svc.ListBatches(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Batch{}
	}
	c.JSON(http.StatusOK, gin.H{"batches": list})
}
