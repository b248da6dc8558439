package installer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pipecrm/internal/mq"
	"pipecrm/internal/repository"
	"pipecrm/pkg/circuitbreaker"
	"pipecrm/pkg/logger"
	"pipecrm/pkg/util"
)

const (
	AppName    = "pipecrm"
	AppVersion = "1.2.0"
)

type Handler struct {
	db        *pgxpool.Pool
	installs  *repository.InstallRepository
	provision *ProvisionClient
	logger    *zap.Logger
}

func NewHandler(db *pgxpool.Pool, installs *repository.InstallRepository, provision *ProvisionClient, log *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		installs:  installs,
		provision: provision,
		logger:    log,
	}
}

// Meta reports install status: schema version, whether bootstrap ran, and
// the provisioned project if any.
func (h *Handler) Meta(c *gin.Context) {
	state, err := h.installs.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read install state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read install state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":            AppName,
		"version":         AppVersion,
		"schema_version":  state.SchemaVersion,
		"latest_version":  SchemaVersion,
		"bootstrapped":    state.Bootstrapped,
		"collections":     mq.Collections(),
		"project_ref":     state.ProjectRef,
		"provisioned_at":  state.ProvisionedAt,
		"provider_status": h.provision.BreakerState().String(),
	})
}

// Bootstrap applies the schema and records the result. Safe to call again.
func (h *Handler) Bootstrap(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.logger)

	if err := Bootstrap(ctx, h.db); err != nil {
		log.Error("Schema bootstrap failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schema bootstrap failed"})
		return
	}
	if err := h.installs.MarkBootstrapped(ctx, SchemaVersion); err != nil {
		log.Error("Failed to record bootstrap", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record bootstrap"})
		return
	}
	log.Info("Schema bootstrap finished", zap.Int("schema_version", SchemaVersion))
	c.JSON(http.StatusOK, gin.H{"bootstrapped": true, "schema_version": SchemaVersion})
}

type runRequest struct {
	Name   string `json:"name" binding:"required"`
	Region string `json:"region"`
}

// Run executes the full install: bootstrap the schema, then provision the
// backend project. Already-provisioned installations return the existing ref.
func (h *Handler) Run(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.logger)

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	state, err := h.installs.Get(ctx)
	if err != nil {
		log.Error("Failed to read install state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read install state"})
		return
	}
	if state.ProjectRef != "" {
		c.JSON(http.StatusOK, gin.H{
			"project_ref":  state.ProjectRef,
			"bootstrapped": state.Bootstrapped,
			"already_run":  true,
		})
		return
	}

	if err := Bootstrap(ctx, h.db); err != nil {
		log.Error("Schema bootstrap failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schema bootstrap failed"})
		return
	}
	if err := h.installs.MarkBootstrapped(ctx, SchemaVersion); err != nil {
		log.Error("Failed to record bootstrap", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record bootstrap"})
		return
	}

	resp, err := h.provision.Provision(ctx, ProvisionRequest{Name: req.Name, Region: req.Region})
	if err != nil {
		if err == circuitbreaker.ErrOpen {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provisioning temporarily unavailable, try again later"})
			return
		}
		retryable, reason := util.IsRetryableError(err)
		log.Error("Provisioning failed",
			zap.String("reason", reason),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		if !retryable {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": "provisioning failed", "retryable": retryable})
		return
	}

	if err := h.installs.SetProvisioned(ctx, resp.ProjectRef, time.Now().UTC()); err != nil {
		log.Error("Failed to record provisioned project", zap.String("project_ref", resp.ProjectRef), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioned but failed to record project ref"})
		return
	}

	log.Info("Installation finished", zap.String("project_ref", resp.ProjectRef))
	c.JSON(http.StatusOK, gin.H{
		"project_ref":  resp.ProjectRef,
		"bootstrapped": true,
		"already_run":  false,
	})
}
