package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

var (
	fieldEntityTypes = map[string]bool{"deal": true, "contact": true, "company": true}
	fieldKinds       = map[string]bool{"text": true, "number": true, "date": true, "select": true}
)

func (h *CRMHandler) ListCustomFields(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	defs, err := h.store.ListCustomFields(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, err, "list custom fields")
		return
	}
	c.JSON(http.StatusOK, defs)
}

func (h *CRMHandler) CreateCustomField(c *gin.Context) {
	var body model.CustomFieldDef
	if err := c.ShouldBindJSON(&body); err != nil || body.Key == "" || body.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and label are required"})
		return
	}
	if !fieldEntityTypes[body.EntityType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type must be one of deal, contact, company"})
		return
	}
	if !fieldKinds[body.Kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of text, number, date, select"})
		return
	}
	if body.Kind == "select" && len(body.Options) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "select fields need options"})
		return
	}
	tenantID, ok := h.checkTenant(c, body.TenantID)
	if !ok {
		return
	}
	body.TenantID = tenantID
	body.ID = ""

	if err := h.store.CreateCustomField(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create custom field")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) DeleteCustomField(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteCustomField(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete custom field")
		return
	}
	c.Status(http.StatusNoContent)
}
