package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pipecrm/internal/store"
	"pipecrm/pkg/logger"
	"pipecrm/pkg/rbac"
)

// CRMHandler serves the record endpoints: companies, contacts, boards,
// stages, deals, activities and custom field definitions.
type CRMHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewCRMHandler(st *store.Store, log *zap.Logger) *CRMHandler {
	return &CRMHandler{store: st, logger: log}
}

// checkTenant rejects bodies claiming a different tenant than the token.
func (h *CRMHandler) checkTenant(c *gin.Context, payloadTenantID string) (string, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return "", false
	}
	if err := rbac.ValidateTenantInPayload(claims.TenantID, payloadTenantID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return "", false
	}
	return claims.TenantID, true
}

func (h *CRMHandler) writeError(c *gin.Context, err error, action string) {
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	log := logger.WithTrace(c.Request.Context(), h.logger)
	log.Error("Request failed", zap.String("action", action), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
}
