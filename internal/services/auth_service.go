package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService issues and refreshes tenant-bound tokens. Access tokens
// carry the tenant id as a claim so the transport layer can verify a
// token is used against the tenant it was issued for.
type AuthService interface {
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.TokenResponse, error)
	Refresh(ctx context.Context, tenantID uuid.UUID, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, tenantID uuid.UUID, refreshToken string) error
	RevokeUserTokens(ctx context.Context, tenantID, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// TokenClaims is the JWT payload on access tokens.
type TokenClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo       repositories.UserRepository
	membershipRepo repositories.MembershipRepository
	tokenRepo      repositories.TokenRepository
	jwtSecret      []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
}

func NewAuthService(
	userRepo repositories.UserRepository,
	membershipRepo repositories.MembershipRepository,
	tokenRepo repositories.TokenRepository,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		tokenRepo:      tokenRepo,
		jwtSecret:      []byte(jwtSecret),
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
	}
}

func (s *authService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, tenantID, strings.ToLower(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	membership, err := s.membershipRepo.GetActive(ctx, tenantID, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, tenantID, user.ID, membership.Role)
}

func (s *authService) Refresh(ctx context.Context, tenantID uuid.UUID, refreshToken string) (*models.TokenResponse, error) {
	stored, err := s.tokenRepo.GetByHash(ctx, tenantID, hashToken(refreshToken))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidCredentials
	}

	membership, err := s.membershipRepo.GetActive(ctx, tenantID, stored.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Refresh tokens rotate: the presented token is dead after use.
	if err := s.tokenRepo.Revoke(ctx, tenantID, stored.ID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, tenantID, stored.UserID, membership.Role)
}

func (s *authService) Logout(ctx context.Context, tenantID uuid.UUID, refreshToken string) error {
	stored, err := s.tokenRepo.GetByHash(ctx, tenantID, hashToken(refreshToken))
	if err != nil {
		// Already gone; logout is idempotent.
		return nil
	}
	return s.tokenRepo.Revoke(ctx, tenantID, stored.ID)
}

func (s *authService) RevokeUserTokens(ctx context.Context, tenantID, userID uuid.UUID) error {
	return s.tokenRepo.RevokeAllForUser(ctx, tenantID, userID)
}

func (s *authService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx, time.Now())
}

func (s *authService) issueTokens(ctx context.Context, tenantID, userID uuid.UUID, role string) (*models.TokenResponse, error) {
	now := time.Now()
	claims := TokenClaims{
		TenantID: tenantID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crmhub-auth",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %v", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	record := &models.RefreshToken{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func generateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
