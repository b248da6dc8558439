package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

var activityKinds = map[string]bool{
	"call":    true,
	"email":   true,
	"meeting": true,
	"note":    true,
	"task":    true,
}

func (h *CRMHandler) ListActivities(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	activities, err := h.store.ListActivities(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, err, "list activities")
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (h *CRMHandler) CreateActivity(c *gin.Context) {
	var body model.Activity
	if err := c.ShouldBindJSON(&body); err != nil || !activityKinds[body.Kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of call, email, meeting, note, task"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = ""

	if err := h.store.CreateActivity(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create activity")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateActivity(c *gin.Context) {
	var body model.Activity
	if err := c.ShouldBindJSON(&body); err != nil || !activityKinds[body.Kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of call, email, meeting, note, task"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = c.Param("id")

	if err := h.store.UpdateActivity(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update activity")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteActivity(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteActivity(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete activity")
		return
	}
	c.Status(http.StatusNoContent)
}
