// Package api wires together all HTTP routes for the CodeGate server.
//
// Route grouping:
//   - /api         is the admin console surface, guarded by JWT bearer auth;
//     every authenticated mutation lands in the audit log.
//   - /api/v1      is the integration surface for SDK clients, guarded by the
//     HMAC signature scheme; each key is scoped to one project.
//   - /health      is unauthenticated for load balancer probes.
//
// Both verify endpoints sit behind the per-IP rate limiter so a leaked code
// list cannot be brute-forced through either surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/pfeak/codegate/internal/api/admin"
	"github.com/pfeak/codegate/internal/api/sdk"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/config"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/jobs"
	"github.com/pfeak/codegate/internal/middleware"
	"github.com/pfeak/codegate/internal/safego"
	"github.com/pfeak/codegate/internal/services"
)

// BackgroundServices holds background jobs and resources that must be stopped
// during graceful shutdown. The caller (cmd/server) calls Shutdown after the
// HTTP server has drained in-flight requests.
type BackgroundServices struct {
	limiter middleware.Limiter
	sweeper *jobs.ExpirySweeper
	cleaner *jobs.RetentionCleaner
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	if bg.sweeper != nil {
		bg.sweeper.Stop()
	}
	if bg.cleaner != nil {
		bg.cleaner.Stop()
	}
	if bg.limiter != nil {
		bg.limiter.Stop()
	}
}

// NewRouter creates and configures the Gin router and starts the background
// jobs.
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORS.AllowedOrigins))

	clk := clock.Real{}

	adminRepo := repositories.NewAdminRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	codeRepo := repositories.NewCodeRepository(db)
	logRepo := repositories.NewVerificationLogRepository(db)
	keyRepo := repositories.NewAPIKeyRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	adminSvc := services.NewAdminService(adminRepo, clk)
	projectSvc := services.NewProjectService(projectRepo, clk)
	codeSvc := services.NewCodeService(codeRepo, projectRepo, clk)
	keySvc := services.NewAPIKeyService(keyRepo, projectRepo, clk, cfg.Auth.APIKeys.Prefix)
	verificationSvc := services.NewVerificationService(db, codeRepo, projectRepo, logRepo, clk)

	limiter := newVerifyLimiter(cfg)
	rateLimit := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		rateLimit = middleware.RateLimitMiddleware(limiter)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandlers := admin.NewAuthHandlers(adminSvc)
	projectHandlers := admin.NewProjectHandlers(projectSvc)
	codeHandlers := admin.NewCodeHandlers(codeSvc, verificationSvc)
	keyHandlers := admin.NewAPIKeyHandlers(keySvc)
	dashboardHandlers := admin.NewDashboardHandlers(projectSvc)
	logHandlers := admin.NewLogHandlers(logRepo, auditRepo)

	// Login is the only unauthenticated admin route.
	router.POST("/api/auth/login", authHandlers.Login)

	adminAPI := router.Group("/api")
	adminAPI.Use(middleware.AdminAuthMiddleware(adminRepo))
	adminAPI.Use(middleware.AuditMiddleware(auditRepo, clk))
	{
		adminAPI.POST("/auth/logout", authHandlers.Logout)
		adminAPI.GET("/auth/me", authHandlers.Me)
		adminAPI.GET("/auth/check-initial-password", authHandlers.CheckInitialPassword)
		adminAPI.POST("/auth/change-password", authHandlers.ChangePassword)

		adminAPI.GET("/dashboard/overview", dashboardHandlers.Overview)

		adminAPI.GET("/projects", projectHandlers.List)
		adminAPI.POST("/projects", projectHandlers.Create)
		adminAPI.GET("/projects/:project_id", projectHandlers.Get)
		adminAPI.PUT("/projects/:project_id", projectHandlers.Update)
		adminAPI.DELETE("/projects/:project_id", projectHandlers.Delete)

		adminAPI.POST("/projects/:project_id/codes/generate", codeHandlers.Generate)
		adminAPI.GET("/projects/:project_id/codes", codeHandlers.List)
		adminAPI.POST("/projects/:project_id/codes/batch-disable-unused", codeHandlers.BatchDisable)
		adminAPI.GET("/projects/:project_id/codes/batch-disable-unused/count", codeHandlers.BatchDisableCount)

		adminAPI.GET("/codes/:code_id", codeHandlers.Get)
		adminAPI.PUT("/codes/:code_id", codeHandlers.Update)
		adminAPI.DELETE("/codes/:code_id", codeHandlers.Delete)
		adminAPI.POST("/codes/:code_id/reactivate", codeHandlers.Reactivate)
		adminAPI.POST("/codes/batch-delete", codeHandlers.BatchDelete)
		adminAPI.POST("/codes/verify", rateLimit, codeHandlers.Verify)

		adminAPI.GET("/projects/:project_id/api-keys", keyHandlers.List)
		adminAPI.POST("/projects/:project_id/api-keys", keyHandlers.Generate)
		adminAPI.PUT("/api-keys/:key_id", keyHandlers.Toggle)
		adminAPI.DELETE("/api-keys/:key_id", keyHandlers.Delete)

		adminAPI.GET("/verification-logs", logHandlers.VerificationLogs)
		adminAPI.GET("/audit-logs", logHandlers.AuditLogs)
	}

	sdkHandlers := sdk.NewHandlers(projectSvc, codeSvc, verificationSvc, logRepo, clk)

	sdkAPI := router.Group("/api/v1")
	sdkAPI.Use(middleware.SDKAuthMiddleware(keySvc, cfg.Auth.APIKeys.TimestampWindow))
	{
		sdkAPI.GET("/projects/:project_id", sdkHandlers.GetProject)
		sdkAPI.GET("/projects/:project_id/statistics", sdkHandlers.Statistics)
		sdkAPI.GET("/projects/:project_id/codes", sdkHandlers.ListCodes)
		sdkAPI.GET("/projects/:project_id/codes/:code_id", sdkHandlers.GetCode)
		sdkAPI.GET("/projects/:project_id/codes/by-code/:code", sdkHandlers.GetCodeByValue)
		sdkAPI.POST("/projects/:project_id/codes/verify", rateLimit, sdkHandlers.Verify)
		sdkAPI.POST("/projects/:project_id/codes/reactivate", sdkHandlers.Reactivate)
	}

	sweeper := jobs.NewExpirySweeper(codeRepo, clk, cfg.Jobs.ExpirySweepInterval)
	safego.Go(func() { sweeper.Start(context.Background()) })

	cleaner := jobs.NewRetentionCleaner(projectRepo, clk, cfg.Jobs.RetentionDays, cfg.Jobs.CleanupInterval)
	safego.Go(func() { cleaner.Start(context.Background()) })

	return router, &BackgroundServices{limiter: limiter, sweeper: sweeper, cleaner: cleaner}
}

// newVerifyLimiter builds the verification rate limiter from configuration.
// Returns nil when rate limiting is disabled.
func newVerifyLimiter(cfg *config.Config) middleware.Limiter {
	rl := cfg.Security.RateLimiting
	if !rl.Enabled {
		return nil
	}
	if rl.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: rl.RedisAddr, DB: rl.RedisDB})
		return middleware.NewRedisLimiter(client, rl.MaxAttempts, rl.Window)
	}
	return middleware.NewSlidingWindowLimiter(middleware.SlidingWindowConfig{
		MaxAttempts:     rl.MaxAttempts,
		Window:          rl.Window,
		CleanupInterval: 5 * time.Minute,
	})
}
