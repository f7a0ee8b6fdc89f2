package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/repository"
)

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var stockErr *models.StockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "shortages": stockErr.Shortages})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrState), errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request payload", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// dateParam parses a YYYY-MM-DD path parameter, answering 400 when it is
// malformed.
func dateParam(c *gin.Context, name string) (time.Time, bool) {
	return parseDate(c, c.Param(name))
}

func parseDate(c *gin.Context, value string) (time.Time, bool) {
	date, err := models.ParseDate(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return date, true
}
