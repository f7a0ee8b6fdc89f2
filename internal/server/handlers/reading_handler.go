package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/service/readings"
)

// ReadingService is the reading lifecycle used by ReadingHandler.
type ReadingService interface {
	RegisterNightReading(ctx context.Context, lotID string, date time.Time, night models.NightReading) (models.BunkReading, error)
	RegisterMorningReading(ctx context.Context, in readings.MorningInput) (models.BunkReading, error)
	CorrectMorningReading(ctx context.Context, in readings.MorningInput) (models.BunkReading, error)
	GetReading(ctx context.Context, lotID string, date time.Time) (models.BunkReading, error)
	ListReadings(ctx context.Context, lotID string, from, to time.Time) ([]models.BunkReading, error)
}

type nightReadingRequest struct {
	NightReading *models.NightReading `json:"night_reading" binding:"required"`
}

// morningReadingRequest requires every categorical field so that an omitted
// value never decodes to the first enum member.
type morningReadingRequest struct {
	DietPhase             *models.DietPhase       `json:"diet_phase" binding:"required"`
	DaysOnFeed            int                     `json:"days_on_feed"`
	Behavior              *models.MorningBehavior `json:"morning_behavior" binding:"required"`
	BunkStatus            *models.BunkStatus      `json:"bunk_status" binding:"required"`
	PreviousIntakePerHead *float64                `json:"previous_intake_per_head"`
}

// ReadingHandler exposes night and morning bunk readings.
type ReadingHandler struct {
	svc    ReadingService
	logger *zap.Logger
}

// NewReadingHandler constructs the reading HTTP adapter.
func NewReadingHandler(svc ReadingService, logger *zap.Logger) *ReadingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingHandler{svc: svc, logger: logger}
}

// RegisterNight records the evening observation of a lot.
func (h *ReadingHandler) RegisterNight(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	var req nightReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	reading, err := h.svc.RegisterNightReading(c.Request.Context(), c.Param("lotId"), date, *req.NightReading)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// RegisterMorning completes the reading of a lot for a date.
func (h *ReadingHandler) RegisterMorning(c *gin.Context) {
	h.morning(c, h.svc.RegisterMorningReading, http.StatusCreated)
}

// CorrectMorning recomputes an already complete reading.
func (h *ReadingHandler) CorrectMorning(c *gin.Context) {
	h.morning(c, h.svc.CorrectMorningReading, http.StatusOK)
}

func (h *ReadingHandler) morning(c *gin.Context, apply func(context.Context, readings.MorningInput) (models.BunkReading, error), status int) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	var req morningReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	in := readings.MorningInput{
		LotID:                 c.Param("lotId"),
		Date:                  date,
		DietPhase:             *req.DietPhase,
		DaysOnFeed:            req.DaysOnFeed,
		Behavior:              *req.Behavior,
		BunkStatus:            *req.BunkStatus,
		PreviousIntakePerHead: req.PreviousIntakePerHead,
	}

	reading, err := apply(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, reading)
}

// Get returns the reading of a lot for a date.
func (h *ReadingHandler) Get(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	reading, err := h.svc.GetReading(c.Request.Context(), c.Param("lotId"), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// List returns a lot's reading history between the from and to query dates.
func (h *ReadingHandler) List(c *gin.Context) {
	from, ok := parseDate(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := parseDate(c, c.DefaultQuery("to", c.Query("from")))
	if !ok {
		return
	}

	list, err := h.svc.ListReadings(c.Request.Context(), c.Param("lotId"), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.BunkReading{}
	}
	c.JSON(http.StatusOK, gin.H{"readings": list})
}
