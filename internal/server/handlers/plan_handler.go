package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/service/feeding"
)

// PlanService is the feeding plan surface used by PlanHandler.
type PlanService interface {
	BuildFeedingPlan(ctx context.Context, lotID string, date time.Time, readingType models.ReadingType, override *feeding.PlanOverride) (models.FeedingPlan, error)
	SaveFeedingPlan(ctx context.Context, lotID string, date time.Time, wagonID string, events []models.FeedingEvent) (models.FeedingPlan, error)
	GetFeedingPlan(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error)
	ProjectRation(ctx context.Context, lotID string) (*ration.Projection, error)
}

// BatchPreparer turns a saved plan into batches.
type BatchPreparer interface {
	PrepareBatchesForPlan(ctx context.Context, lotID string, date time.Time) ([]models.Batch, error)
}

type buildPlanRequest struct {
	ReadingType models.ReadingType    `json:"reading_type"`
	WagonID     string                `json:"wagon_id"`
	Events      []models.FeedingEvent `json:"events"`
}

type savePlanRequest struct {
	WagonID string                `json:"wagon_id"`
	Events  []models.FeedingEvent `json:"events" binding:"required"`
}

// PlanHandler exposes feeding plans and ration projections.
type PlanHandler struct {
	plans   PlanService
	batches BatchPreparer
	logger  *zap.Logger
}

// NewPlanHandler constructs the feeding plan HTTP adapter.
func NewPlanHandler(plans PlanService, batches BatchPreparer, logger *zap.Logger) *PlanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanHandler{plans: plans, batches: batches, logger: logger}
}

// Build computes and stores a lot's plan for a date. An empty body builds a
// baseline plan with the carried-forward schedule.
func (h *PlanHandler) Build(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	var req buildPlanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.logger, err)
			return
		}
	}

	var override *feeding.PlanOverride
	if req.WagonID != "" || len(req.Events) > 0 {
		override = &feeding.PlanOverride{WagonID: req.WagonID, Events: req.Events}
	}

	plan, err := h.plans.BuildFeedingPlan(c.Request.Context(), c.Param("lotId"), date, req.ReadingType, override)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Save replaces the wagon and events of a plan.
func (h *PlanHandler) Save(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	var req savePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	plan, err := h.plans.SaveFeedingPlan(c.Request.Context(), c.Param("lotId"), date, req.WagonID, req.Events)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Get returns a lot's plan for a date.
func (h *PlanHandler) Get(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	plan, err := h.plans.GetFeedingPlan(c.Request.Context(), c.Param("lotId"), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// PrepareBatches creates one batch per event of a lot's plan.
func (h *PlanHandler) PrepareBatches(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	created, err := h.batches.PrepareBatchesForPlan(c.Request.Context(), c.Param("lotId"), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batches": created})
}

// Projection returns the whole-cycle ration projection of a lot.
func (h *PlanHandler) Projection(c *gin.Context) {
	proj, err := h.plans.ProjectRation(c.Request.Context(), c.Param("lotId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, proj)
}
