// internal/app/router.go
package app

import (
	affiliateHandler "referral-service/internal/handlers/affiliate"
	authHandler "referral-service/internal/handlers/auth"
	leadHandler "referral-service/internal/handlers/lead"
	wsHandler "referral-service/internal/handlers/websocket"
	"referral-service/internal/metrics"
	"referral-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler      *authHandler.AuthHandler
	LeadHandler      *leadHandler.LeadHandler
	AffiliateHandler *affiliateHandler.AffiliateHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health & Metrics ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Leads ====================
	api.GET("/project-types", h.LeadHandler.ProjectTypes)

	leads := api.Group("/leads")
	leads.Use(h.AuthMiddleware.Auth())
	{
		leads.GET("", h.LeadHandler.List)
		leads.GET("/:id", h.LeadHandler.Get)
		leads.POST("", h.LeadHandler.Create)
	}

	// ==================== Affiliate Self-Service ====================
	me := api.Group("/me")
	me.Use(h.AuthMiddleware.Auth())
	{
		me.GET("/stats", h.AffiliateHandler.MyStats)
		me.GET("/referral-link", h.AffiliateHandler.MyReferralLink)
	}

	// ==================== ADMIN ROUTES ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		// Lead lifecycle
		admin.POST("/leads/:id/confirm", h.LeadHandler.Confirm)
		admin.POST("/leads/:id/paid", h.LeadHandler.MarkPaid)

		// Monetary edit sessions: open, stage, then commit both fields
		// in a single write
		admin.POST("/leads/:id/amounts/edit", h.LeadHandler.OpenAmounts)
		admin.PUT("/leads/amounts", h.LeadHandler.SetAmounts)
		admin.POST("/leads/amounts/commit", h.LeadHandler.CommitAmounts)
		admin.DELETE("/leads/amounts", h.LeadHandler.DiscardAmounts)

		// Derived roster
		admin.GET("/affiliates", h.AffiliateHandler.Roster)
		admin.GET("/overview", h.AffiliateHandler.Overview)

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
