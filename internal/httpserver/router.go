package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pipecrm/internal/handler"
	"pipecrm/internal/installer"
	"pipecrm/pkg/rbac"
)

type Deps struct {
	JWTSecret string
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Auth      *handler.AuthHandler
	CRM       *handler.CRMHandler
	Decisions *handler.DecisionHandler
	Outbox    *handler.OutboxHandler
	Installer *installer.Handler
	Logger    *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := d.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/register", d.Auth.Register)
	r.POST("/api/auth/login", d.Auth.Login)

	// Meta and bootstrap are first-run surface: they must work before any
	// user exists. Provisioning costs money and requires an owner token.
	inst := r.Group("/api/installer")
	{
		inst.GET("/meta", d.Installer.Meta)
		inst.POST("/bootstrap", d.Installer.Bootstrap)
		inst.POST("/run",
			AuthMiddleware(d.JWTSecret, d.Logger),
			RequirePermission(rbac.PermissionRunInstaller),
			d.Installer.Run,
		)
	}

	api := r.Group("/api", AuthMiddleware(d.JWTSecret, d.Logger))
	{
		api.POST("/users", RequirePermission(rbac.PermissionManageUsers), d.Auth.AddMember)

		api.GET("/companies", d.CRM.ListCompanies)
		api.POST("/companies", d.CRM.CreateCompany)
		api.PUT("/companies/:id", d.CRM.UpdateCompany)
		api.DELETE("/companies/:id", RequirePermission(rbac.PermissionDeleteRecord), d.CRM.DeleteCompany)

		api.GET("/contacts", d.CRM.ListContacts)
		api.POST("/contacts", d.CRM.CreateContact)
		api.PUT("/contacts/:id", d.CRM.UpdateContact)
		api.DELETE("/contacts/:id", RequirePermission(rbac.PermissionDeleteRecord), d.CRM.DeleteContact)

		api.GET("/boards", d.CRM.ListBoards)
		api.POST("/boards", RequirePermission(rbac.PermissionManageBoard), d.CRM.CreateBoard)
		api.PUT("/boards/:id", RequirePermission(rbac.PermissionManageBoard), d.CRM.UpdateBoard)
		api.DELETE("/boards/:id", RequirePermission(rbac.PermissionManageBoard), d.CRM.DeleteBoard)
		api.GET("/boards/:id/stages", d.CRM.ListStages)
		api.POST("/boards/:id/stages", RequirePermission(rbac.PermissionManageBoard), d.CRM.CreateStage)
		api.PUT("/stages/:id", RequirePermission(rbac.PermissionManageBoard), d.CRM.UpdateStage)
		api.DELETE("/stages/:id", RequirePermission(rbac.PermissionManageBoard), d.CRM.DeleteStage)

		api.GET("/deals", d.CRM.ListDeals)
		api.POST("/deals", d.CRM.CreateDeal)
		api.GET("/deals/:id", d.CRM.GetDeal)
		api.PUT("/deals/:id", d.CRM.UpdateDeal)
		api.POST("/deals/:id/move", d.CRM.MoveDeal)
		api.DELETE("/deals/:id", RequirePermission(rbac.PermissionDeleteRecord), d.CRM.DeleteDeal)

		api.GET("/activities", d.CRM.ListActivities)
		api.POST("/activities", d.CRM.CreateActivity)
		api.PUT("/activities/:id", d.CRM.UpdateActivity)
		api.DELETE("/activities/:id", RequirePermission(rbac.PermissionDeleteRecord), d.CRM.DeleteActivity)

		api.GET("/custom-fields", d.CRM.ListCustomFields)
		api.POST("/custom-fields", RequirePermission(rbac.PermissionManageFields), d.CRM.CreateCustomField)
		api.DELETE("/custom-fields/:id", RequirePermission(rbac.PermissionManageFields), d.CRM.DeleteCustomField)

		api.GET("/outbox/failed", RequirePermission(rbac.PermissionRunInstaller), d.Outbox.ListFailed)
		api.POST("/outbox/:id/replay", RequirePermission(rbac.PermissionRunInstaller), d.Outbox.Replay)

		api.GET("/decisions", d.Decisions.List)
		api.POST("/decisions/:id/approve", RequirePermission(rbac.PermissionApproveAction), d.Decisions.Approve)
		api.POST("/decisions/:id/reject", RequirePermission(rbac.PermissionApproveAction), d.Decisions.Reject)
		api.POST("/decisions/:id/snooze", d.Decisions.Snooze)
	}

	return r
}
