package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

func (h *CRMHandler) ListContacts(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	contacts, err := h.store.ListContacts(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, err, "list contacts")
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *CRMHandler) CreateContact(c *gin.Context) {
	var body model.Contact
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

	if err := h.store.CreateContact(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create contact")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateContact(c *gin.Context) {
	var body model.Contact
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

	if err := h.store.UpdateContact(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update contact")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteContact(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteContact(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete contact")
		return
	}
	c.Status(http.StatusNoContent)
}
