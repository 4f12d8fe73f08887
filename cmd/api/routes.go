package main

import (
	"database/sql"
	"net/http"
	"time"

	"opsconsole/internal/auth"
	"opsconsole/internal/httpapi"
	"opsconsole/internal/intake"
	"opsconsole/internal/rbac"
	"opsconsole/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, webhook intake.WebhookHandler, verifier *auth.Verifier, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Producer webhooks are gated by the shared secret, not user auth.
	r.POST("/webhooks/producer/:source", webhook.HandleProducerEvent)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(verifier))
	{
		items := v1.Group("/workitems")
		{
			// Console-wide viewer routes; per-kind decision gating is enforced
			// inside the decision handlers against each item's kind.
			viewers := append(rbac.ViewerRoles(), rbac.RoleScheduler)

			items.GET("", rbac.RequireAnyRole(rbac.ViewerRoles()...), h.ListWorkItems)
			items.GET("/summary", rbac.RequireAnyRole(rbac.ViewerRoles()...), h.Summary)
			items.GET("/:id", rbac.RequireAnyRole(viewers...), h.GetWorkItem)
			items.POST("", rbac.RequireAnyRole(rbac.ViewerRoles()...), h.CreateWorkItem)
			items.POST("/:id/decision", rbac.RequireAnyRole(viewers...), h.Decide)
			items.POST("/bulk-decision", rbac.RequireAnyRole(viewers...), h.BulkDecide)
		}

		v1.GET("/audit", rbac.RequireAnyRole(rbac.ViewerRoles()...), h.QueryAudit)
	}
}
