package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

func (h *CRMHandler) ListDeals(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if boardID := c.Query("board_id"); boardID != "" {
		deals, err := h.store.ListDealsByBoard(ctx, tenantID, boardID)
		if err != nil {
			h.writeError(c, err, "list deals")
			return
		}
		c.JSON(http.StatusOK, deals)
		return
	}

	deals, err := h.store.ListDeals(ctx, tenantID)
	if err != nil {
		h.writeError(c, err, "list deals")
		return
	}
	c.JSON(http.StatusOK, deals)
}

func (h *CRMHandler) GetDeal(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	deal, err := h.store.Deals.FindByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "get deal")
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *CRMHandler) CreateDeal(c *gin.Context) {
	var body model.Deal
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == "" || body.BoardID == "" || body.StageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, board_id and stage_id are required"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = ""
	if body.Currency == "" {
		body.Currency = "USD"
	}

	if err := h.store.CreateDeal(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create deal")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateDeal(c *gin.Context) {
	var body model.Deal
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == "" || body.BoardID == "" || body.StageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, board_id and stage_id are required"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = c.Param("id")

	if err := h.store.UpdateDeal(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update deal")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteDeal(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteDeal(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete deal")
		return
	}
	c.Status(http.StatusNoContent)
}

type moveDealRequest struct {
	StageID  string `json:"stage_id" binding:"required"`
	Position int    `json:"position"`
}

// MoveDeal is the kanban drag: the card changes stage and position in one
// call, emitting a single change event.
func (h *CRMHandler) MoveDeal(c *gin.Context) {
	var req moveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage_id is required"})
		return
	}
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}

	deal, err := h.store.MoveDeal(c.Request.Context(), tenantID, c.Param("id"), req.StageID, req.Position)
	if err != nil {
		h.writeError(c, err, "move deal")
		return
	}
	c.JSON(http.StatusOK, deal)
}
