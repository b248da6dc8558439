package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipecrm/pkg/outbox"
)

// OutboxHandler is the ops surface for the change-event outbox: inspect
// terminally failed events and push them back to pending.
type OutboxHandler struct {
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewOutboxHandler(repo *outbox.Repository, log *zap.Logger) *OutboxHandler {
	return &OutboxHandler{outbox: repo, logger: log}
}

func (h *OutboxHandler) ListFailed(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	events, err := h.outbox.GetFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list failed outbox events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	if events == nil {
		events = []*outbox.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *OutboxHandler) Replay(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event id must be numeric"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.outbox.GetEventByID(ctx, eventID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err := h.outbox.ReplayEvent(ctx, eventID); err != nil {
		h.logger.Error("Failed to replay outbox event", zap.Int64("event_id", eventID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replay event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "status": "pending"})
}
