package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crmhub/internal/common"
	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const jwtTestSecret = "jwt-middleware-test-secret"

// membershipStub answers GetActive from a fixed membership.
type membershipStub struct {
	repositories.MembershipRepository
	membership *models.Membership
	err        error
}

func (s *membershipStub) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.membership, nil
}

func (s *membershipStub) TouchLastAccess(ctx context.Context, tenantID, userID uuid.UUID) error {
	return nil
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtTestSecret))
	assert.NoError(t, err)
	return signed
}

func jwtTestRequest(t *testing.T, memberships repositories.MembershipRepository, tenantID uuid.UUID, token string, next echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(common.WithTenantID(req.Context(), tenantID)))

	mw := JWTMiddleware(memberships, jwtTestSecret)
	return mw(next)(c)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWT_ValidTokenBindsRole(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	memberships := &membershipStub{membership: &models.Membership{Role: models.RoleAdmin}}
	token := signTestToken(t, jwt.MapClaims{
		"sub":       userID.String(),
		"tenant_id": tenantID.String(),
	})

	var gotRole string
	err := jwtTestRequest(t, memberships, tenantID, token, func(c echo.Context) error {
		gotRole, _ = common.GetRoleFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestJWT_MissingTenantClaimRejected(t *testing.T) {
	memberships := &membershipStub{membership: &models.Membership{Role: models.RoleAdmin}}
	token := signTestToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
	})

	err := jwtTestRequest(t, memberships, uuid.New(), token, func(c echo.Context) error {
		t.Fatal("handler must not run for a token without a tenant claim")
		return nil
	})
	assertUnauthorized(t, err)
}

func TestJWT_ForeignTenantClaimRejected(t *testing.T) {
	memberships := &membershipStub{membership: &models.Membership{Role: models.RoleAdmin}}
	token := signTestToken(t, jwt.MapClaims{
		"sub":       uuid.New().String(),
		"tenant_id": uuid.New().String(),
	})

	err := jwtTestRequest(t, memberships, uuid.New(), token, func(c echo.Context) error {
		t.Fatal("handler must not run for a token minted for another tenant")
		return nil
	})
	assertUnauthorized(t, err)
}

func TestJWT_NoMembershipIs403(t *testing.T) {
	tenantID := uuid.New()
	memberships := &membershipStub{err: assert.AnError}
	token := signTestToken(t, jwt.MapClaims{
		"sub":       uuid.New().String(),
		"tenant_id": tenantID.String(),
	})

	err := jwtTestRequest(t, memberships, tenantID, token, func(c echo.Context) error {
		t.Fatal("handler must not run without an active membership")
		return nil
	})
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestJWT_BadSignatureRejected(t *testing.T) {
	tenantID := uuid.New()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       uuid.New().String(),
		"tenant_id": tenantID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	assert.NoError(t, err)

	reqErr := jwtTestRequest(t, &membershipStub{}, tenantID, signed, func(c echo.Context) error {
		t.Fatal("handler must not run for a forged token")
		return nil
	})
	assertUnauthorized(t, reqErr)
}
