package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipecrm/internal/decision"
	"pipecrm/pkg/logger"
)

type DecisionHandler struct {
	queue  *decision.Queue
	logger *zap.Logger
}

func NewDecisionHandler(queue *decision.Queue, log *zap.Logger) *DecisionHandler {
	return &DecisionHandler{queue: queue, logger: log}
}

// List returns the actionable decisions for the caller's tenant, best first.
func (h *DecisionHandler) List(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	pending, err := h.queue.Pending(c.Request.Context(), claims.TenantID)
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Error("Failed to list decisions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list decisions"})
		return
	}
	c.JSON(http.StatusOK, pending)
}

type approveRequest struct {
	PayloadOverride json.RawMessage `json:"payload_override"`
}

func (h *DecisionHandler) Approve(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload override"})
			return
		}
	}

	d, err := h.queue.Approve(c.Request.Context(), claims.TenantID, c.Param("id"), req.PayloadOverride)
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Warn("Approve failed",
			zap.String("decision_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "decision is not pending or action failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DecisionHandler) Reject(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	d, err := h.queue.Reject(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "decision is not pending"})
		return
	}
	c.JSON(http.StatusOK, d)
}

type snoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

func (h *DecisionHandler) Snooze(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "until is required"})
		return
	}
	if err := h.queue.Snooze(c.Request.Context(), claims.TenantID, c.Param("id"), req.Until); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
