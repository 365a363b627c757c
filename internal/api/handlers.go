package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

const healthTimeout = 3 * time.Second

// Handler serves the REST API on top of the service layer.
type Handler struct {
	journeys  Journeys
	chat      Chat
	progress  Progress
	resources Resources
	metrics   *metrics.Collector
	checks    map[string]HealthCheck
}

// NewHandler creates a Handler. checks are run by /health.
func NewHandler(journeys Journeys, chat Chat, progress Progress, resources Resources, mc *metrics.Collector, checks map[string]HealthCheck) *Handler {
	return &Handler{
		journeys:  journeys,
		chat:      chat,
		progress:  progress,
		resources: resources,
		metrics:   mc,
		checks:    checks,
	}
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Message        string        `json:"message" binding:"required"`
	ConversationID string        `json:"conversation_id,omitempty"`
	History        []models.Turn `json:"history,omitempty"`
}

// TimeRequest is the body of the time-spent endpoint.
type TimeRequest struct {
	Minutes int `json:"minutes"`
}

// StatsResponse is returned by /api/v1/stats.
type StatsResponse struct {
	metrics.Snapshot
	ActiveRuns []service.Run `json:"active_runs"`
}

func (h *Handler) chatStart(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}
	reply, err := h.chat.Start(c.Request.Context(), userID(c), req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) chatRespond(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}
	reply, err := h.chat.Respond(c.Request.Context(), userID(c), req.Message, req.History, req.ConversationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) chatHistory(c *gin.Context) {
	convs, err := h.chat.History(c.Request.Context(), userID(c), queryInt(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *Handler) chatConversation(c *gin.Context) {
	conv, err := h.chat.Conversation(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) listJourneys(c *gin.Context) {
	list, err := h.journeys.List(c.Request.Context(), userID(c), queryInt(c, "limit", service.DefaultListLimit))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journeys": list})
}

func (h *Handler) getJourney(c *gin.Context) {
	detail, err := h.journeys.Detail(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) getResource(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	r, err := h.resources.Get(c.Request.Context(), c.Param("id"), refresh)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) progressKey(c *gin.Context) models.ProgressKey {
	return models.ProgressKey{
		UserID:     userID(c),
		JourneyID:  c.Param("journey"),
		ResourceID: c.Param("resource"),
	}
}

type progressWrite func(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)

func (h *Handler) progressEvent(write progressWrite) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := write(c.Request.Context(), h.progressKey(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *Handler) progressTime(c *gin.Context) {
	var req TimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}
	rec, err := h.progress.AddTimeSpent(c.Request.Context(), h.progressKey(c), req.Minutes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) progressSummary(c *gin.Context) {
	sum, err := h.progress.Summary(c.Request.Context(), userID(c), c.Param("journey"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) lastPosition(c *gin.Context) {
	pos, err := h.progress.LastPosition(c.Request.Context(), userID(c), c.Param("journey"))
	if err != nil {
		fail(c, err)
		return
	}
	if pos == nil {
		c.JSON(http.StatusOK, gin.H{"last_position": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_position": pos})
}

func (h *Handler) stats(c *gin.Context) {
	runs := h.journeys.Active()
	if runs == nil {
		runs = []service.Run{}
	}
	c.JSON(http.StatusOK, StatsResponse{Snapshot: h.metrics.Snapshot(), ActiveRuns: runs})
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
