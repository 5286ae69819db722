// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"referral-service/internal/domain/identity"
	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	authUsecase "referral-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles affiliate registration (public endpoint)
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	authResp, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", authResp)
}

// Login handles sign-in
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	authResp, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", authResp)
}

// Logout revokes the current session (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.SignOut(c.Request.Context(), ident.ID, jti); err != nil {
		h.logger.Error("logout failed",
			zap.String("identity_id", ident.ID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the authenticated identity (requires auth)
func (h *AuthHandler) GetMe(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	response.Success(c, http.StatusOK, "identity retrieved", ident)
}
