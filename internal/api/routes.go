package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with middleware and every route.
// gatherer backs /metrics; nil serves the default registry.
func NewRouter(h *Handler, log *slog.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(log))
	router.Use(RequestLogger(log))

	router.GET("/health", h.health)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.GET("/stats", h.stats)

	authed := v1.Group("", RequireUser())

	chat := authed.Group("/chat")
	chat.POST("/start", h.chatStart)
	chat.POST("/respond", h.chatRespond)
	chat.GET("/history", h.chatHistory)
	chat.GET("/history/:id", h.chatConversation)

	authed.GET("/journeys", h.listJourneys)
	authed.GET("/journeys/:id", h.getJourney)
	authed.GET("/resources/:id", h.getResource)

	progress := authed.Group("/progress/:journey")
	progress.GET("", h.progressSummary)
	progress.GET("/last-position", h.lastPosition)
	progress.POST("/:resource/start", h.progressEvent(h.progress.MarkInProgress))
	progress.POST("/:resource/complete", h.progressEvent(h.progress.MarkCompleted))
	progress.POST("/:resource/incomplete", h.progressEvent(h.progress.MarkIncomplete))
	progress.POST("/:resource/time", h.progressTime)

	return router
}
