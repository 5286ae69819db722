// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/identity"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/pkg/jwt"
	"referral-service/internal/pkg/session"
	"referral-service/internal/repository/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies authenticated identities. Errors from
// this collaborator are surfaced to callers verbatim.
type AuthService struct {
	profiles *postgres.AffiliateProfileRepository
	jwt      *jwt.Manager
	sessions *session.Manager
	logger   *zap.Logger
}

func NewAuthService(
	profiles *postgres.AffiliateProfileRepository,
	jwtManager *jwt.Manager,
	sessions *session.Manager,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		profiles: profiles,
		jwt:      jwtManager,
		sessions: sessions,
		logger:   logger,
	}
}

// SignUp registers a new affiliate account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req *identity.SignUpRequest) (*identity.AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, xerrors.NewValidation("confirm_password", "passwords do not match")
	}

	exists, err := s.profiles.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, xerrors.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &affiliate.Profile{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         affiliate.RoleAffiliate,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.logger.Error("failed to create affiliate profile", zap.Error(err))
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("affiliate registered",
		zap.String("identity_id", profile.ID),
		zap.String("email", profile.Email),
	)
	return s.issue(ctx, profile)
}

// SignIn authenticates an email/password pair and issues a token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
	profile, err := s.profiles.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}
	if !profile.IsActive {
		return nil, xerrors.ErrForbidden
	}

	s.logger.Info("identity signed in", zap.String("identity_id", profile.ID))
	return s.issue(ctx, profile)
}

// SignOut revokes the session behind the given token id.
func (s *AuthService) SignOut(ctx context.Context, identityID, jti string) error {
	if err := s.sessions.Revoke(ctx, identityID, jti); err != nil {
		return err
	}
	s.logger.Info("identity signed out", zap.String("identity_id", identityID))
	return nil
}

// ValidateToken verifies a token and its live session, returning the claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Get(ctx, claims.IdentityID, claims.ID); err != nil {
		return nil, err
	}
	return claims, nil
}

// EnsureAdminExists creates the administrator account if it is missing.
// Called once at startup.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	exists, err := s.profiles.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	first, last := splitName(fullName)
	profile := &affiliate.Profile{
		ID:           uuid.NewString(),
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Role:         affiliate.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create admin profile: %w", err)
	}

	s.logger.Info("admin account created", zap.String("email", profile.Email))
	return nil
}

func (s *AuthService) issue(ctx context.Context, profile *affiliate.Profile) (*identity.AuthResponse, error) {
	token, jti, err := s.jwt.Generate(profile.ID, profile.Email, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now()
	if err := s.sessions.Create(ctx, &session.Data{
		JTI:        jti,
		IdentityID: profile.ID,
		Email:      profile.Email,
		Role:       profile.Role,
		LoginAt:    now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &identity.AuthResponse{
		Identity: identity.Identity{ID: profile.ID, Email: profile.Email, Role: profile.Role},
		Token:    token,
	}, nil
}

func splitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
