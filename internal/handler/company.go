package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipecrm/internal/model"
)

func (h *CRMHandler) ListCompanies(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	companies, err := h.store.ListCompanies(c.Request.Context(), tenantID)
	if err != nil {
		h.writeError(c, err, "list companies")
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *CRMHandler) CreateCompany(c *gin.Context) {
	var body model.Company
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

	if err := h.store.CreateCompany(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "create company")
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CRMHandler) UpdateCompany(c *gin.Context) {
	var body model.Company
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

	if err := h.store.UpdateCompany(c.Request.Context(), &body); err != nil {
		h.writeError(c, err, "update company")
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *CRMHandler) DeleteCompany(c *gin.Context) {
	tenantID, ok := h.checkTenant(c, "")
	if !ok {
		return
	}
	if err := h.store.DeleteCompany(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete company")
		return
	}
	c.Status(http.StatusNoContent)
}
