package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	service "github.com/mamadbah2/feedlot/internal/service/whatsapp"
)

// Reporter produces the daily operations summary.
type Reporter interface {
	DailySummary(ctx context.Context, date time.Time) (models.DailyReport, error)
}

// ReportHandler exposes the daily summary and manual operator messages.
type ReportHandler struct {
	reporter  Reporter
	messaging service.MessagingService
	logger    *zap.Logger
}

// NewReportHandler constructs the report HTTP adapter.
func NewReportHandler(reporter Reporter, messaging service.MessagingService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reporter: reporter, messaging: messaging, logger: logger}
}

// Daily returns the summary for the date query parameter.
func (h *ReportHandler) Daily(c *gin.Context) {
	date, ok := parseDate(c, c.Query("date"))
	if !ok {
		return
	}
	report, err := h.reporter.DailySummary(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SendMessage pushes a manual message to the operator or a given recipient.
func (h *ReportHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.messaging.SendOutbound(c.Request.Context(), req); err != nil {
		if errors.Is(err, models.ErrValidation) {
			respondError(c, h.logger, err)
			return
		}
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
