// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"referral-service/internal/config"
	"referral-service/internal/db"
	affiliateHandler "referral-service/internal/handlers/affiliate"
	authHandler "referral-service/internal/handlers/auth"
	leadHandler "referral-service/internal/handlers/lead"
	wsHandler "referral-service/internal/handlers/websocket"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/jwt"
	"referral-service/internal/pkg/session"
	"referral-service/internal/repository/postgres"
	affiliateUsecase "referral-service/internal/service/affiliate"
	authUsecase "referral-service/internal/service/auth"
	leadUsecase "referral-service/internal/service/lead"
	"referral-service/internal/stream"
	"referral-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	authService *authUsecase.AuthService
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start(ctx context.Context) error {
	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := postgres.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	// ----- JWT & Sessions -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}
	sessionManager := session.NewManager(redisClient)

	// ----- Repositories -----
	leadRepo := postgres.NewLeadRepository(pool)
	profileRepo := postgres.NewAffiliateProfileRepository(pool)

	// ----- Lead feed & canonical store -----
	leadSource := postgres.NewLeadSource(leadRepo, redisClient, logger)
	store := stream.NewStore(leadSource, logger)
	go func() {
		if err := store.Run(ctx); err != nil {
			logger.Error("lead store stopped", zap.Error(err))
		}
	}()

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(profileRepo, jwtManager, sessionManager, logger)
	s.authService = authService

	leadService := leadUsecase.NewLeadService(store, logger)
	editSessions := leadUsecase.NewEditSessions(store, logger)

	rosterService := affiliateUsecase.NewRosterService(store, s.cfg.ReferralBaseURL, logger)
	go func() {
		if err := rosterService.Run(ctx); err != nil {
			logger.Error("roster service stopped", zap.Error(err))
		}
	}()

	// ----- WebSocket Hub & Bridge -----
	hub := websocket.NewHub(jwtManager, sessionManager)
	bridge := websocket.NewBridge(hub, store, logger)
	go hub.Run(ctx)
	go bridge.Run(ctx)

	// ----- Bootstrap admin -----
	if err := s.initializeAdmin(ctx); err != nil {
		logger.Error("failed to initialize admin account", zap.Error(err))
		// Don't fail startup, just log the error
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, logger)
	leadHandlerInst := leadHandler.NewLeadHandler(leadService, editSessions, logger)
	affiliateHandlerInst := affiliateHandler.NewAffiliateHandler(rosterService, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:      authHandlerInst,
		LeadHandler:      leadHandlerInst,
		AffiliateHandler: affiliateHandlerInst,
		WSHandler:        wsHandlerInst,
		AuthMiddleware:   authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// initializeAdmin creates the administrator account if it doesn't exist
func (s *Server) initializeAdmin(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	email := s.cfg.AdminEmail
	password := s.cfg.AdminPassword
	if password == "" {
		s.logger.Warn("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}
	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	if err := s.authService.EnsureAdminExists(ctx, email, password, s.cfg.AdminName); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}

	return nil
}
