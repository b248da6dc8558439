package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

func (h *CRMHandler) ListBoards(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	boards, err := h.store.ListBoards(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, err, "list boards")
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *CRMHandler) CreateBoard(c *gin.Context) {
	var body model.Board
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = ""

	if err := h.store.CreateBoard(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create board")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateBoard(c *gin.Context) {
	var body model.Board
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = c.Param("id")

	if err := h.store.UpdateBoard(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update board")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteBoard(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteBoard(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete board")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CRMHandler) ListStages(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	stages, err := h.store.ListStages(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "list stages")
		return
	}
	c.JSON(http.StatusOK, stages)
}

func (h *CRMHandler) CreateStage(c *gin.Context) {
	var body model.BoardStage
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.BoardID = c.Param("id")
	body.ID = ""

	if err := h.store.CreateStage(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create stage")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateStage(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	existing, err := h.store.Boards.FindStageByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "update stage")
		return
	}

	var body model.BoardStage
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	body.TenantID = tenantID
	body.ID = existing.ID
	body.BoardID = existing.BoardID

	if err := h.store.UpdateStage(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update stage")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteStage(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteStage(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete stage")
		return
	}
	c.Status(http.StatusNoContent)
}
