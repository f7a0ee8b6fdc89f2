package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/server/handlers"
)

// Handlers groups the HTTP adapters served by the engine.
type Handlers struct {
	Readings *handlers.ReadingHandler
	Plans    *handlers.PlanHandler
	Batches  *handlers.BatchHandler
	Reports  *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	lots := api.Group("/lots/:lotId")
	lots.GET("/readings", h.Readings.List)
	lots.GET("/readings/:date", h.Readings.Get)
	lots.POST("/readings/:date/night", h.Readings.RegisterNight)
	lots.POST("/readings/:date/morning", h.Readings.RegisterMorning)
	lots.PUT("/readings/:date/morning", h.Readings.CorrectMorning)

	lots.GET("/projection", h.Plans.Projection)
	lots.GET("/plans/:date", h.Plans.Get)
	lots.PUT("/plans/:date", h.Plans.Save)
	lots.POST("/plans/:date/build", h.Plans.Build)
	lots.POST("/plans/:date/batches", h.Plans.PrepareBatches)

	api.GET("/batches", h.Batches.List)
	api.POST("/batches", h.Batches.Create)
	api.GET("/batches/:id", h.Batches.Get)
	api.POST("/batches/:id/approve", h.Batches.Approve)
	api.POST("/batches/:id/cancel", h.Batches.Cancel)

	api.GET("/reports/daily", h.Reports.Daily)
	api.POST("/messages", h.Reports.SendMessage)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
