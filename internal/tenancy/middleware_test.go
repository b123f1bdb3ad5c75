package tenancy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"crmhub/internal/common"
	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TenancyMiddlewareTestSuite struct {
	suite.Suite
	mockRepo *MockTenantRepository
	tenant   *models.Tenant
	mw       echo.MiddlewareFunc
	e        *echo.Echo
}

func (suite *TenancyMiddlewareTestSuite) SetupTest() {
	suite.mockRepo = &MockTenantRepository{}
	suite.mockRepo.Test(suite.T())
	suite.tenant = &models.Tenant{
		ID:        uuid.New(),
		Name:      "Acme",
		Subdomain: "acme",
		Status:    models.TenantStatusActive,
	}

	resolver := NewResolver(suite.mockRepo, nil, "crmhub.io")
	router, err := NewScopeRouter(nil, StrategyRow)
	assert.NoError(suite.T(), err)

	suite.mw = Middleware(resolver, router, "X-Tenant-ID")
	suite.e = echo.New()
}

func (suite *TenancyMiddlewareTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestTenancyMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(TenancyMiddlewareTestSuite))
}

func (suite *TenancyMiddlewareTestSuite) invoke(req *http.Request, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := suite.e.NewContext(req, rec)
	return rec, suite.mw(handler)(c)
}

func (suite *TenancyMiddlewareTestSuite) TestResolvedTenantOnContext() {
	suite.mockRepo.On("GetBySubdomain", mock.Anything, "acme").Return(suite.tenant, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "acme.crmhub.io"

	var gotTenantID uuid.UUID
	var hadScope bool
	_, err := suite.invoke(req, func(c echo.Context) error {
		ctx := c.Request().Context()
		gotTenantID, _ = common.GetTenantIDFromContext(ctx)
		_, hadScope = ScopeFromContext(ctx)
		return c.NoContent(http.StatusOK)
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenant.ID, gotTenantID)
	assert.True(suite.T(), hadScope)
}

func (suite *TenancyMiddlewareTestSuite) TestPublicPathSkipsResolution() {
	req := httptest.NewRequest(http.MethodPost, "/v1/tenants/signup", nil)
	req.Host = "crmhub.io"

	called := false
	_, err := suite.invoke(req, func(c echo.Context) error {
		called = true
		_, ok := ScopeFromContext(c.Request().Context())
		assert.False(suite.T(), ok)
		return c.NoContent(http.StatusOK)
	})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), called)
}

func (suite *TenancyMiddlewareTestSuite) TestNoTenantIdentified() {
	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "crmhub.io"

	_, err := suite.invoke(req, unreachableHandler(suite.T()))
	assertHTTPStatus(suite.T(), err, http.StatusUnauthorized)
}

func (suite *TenancyMiddlewareTestSuite) TestUnknownTenantReadsAsNotFound() {
	suite.mockRepo.On("GetBySubdomain", mock.Anything, "ghost").Return(nil, pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "ghost.crmhub.io"

	_, err := suite.invoke(req, unreachableHandler(suite.T()))
	assertHTTPStatus(suite.T(), err, http.StatusNotFound)
}

func (suite *TenancyMiddlewareTestSuite) TestAmbiguousTenantReadsAsNotFound() {
	suite.mockRepo.On("GetBySubdomain", mock.Anything, "acme").Return(suite.tenant, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "acme.crmhub.io"
	req.Header.Set("X-Tenant-ID", uuid.New().String())

	_, err := suite.invoke(req, unreachableHandler(suite.T()))
	assertHTTPStatus(suite.T(), err, http.StatusNotFound)
}

func (suite *TenancyMiddlewareTestSuite) TestSuspendedTenantForbidden() {
	suite.tenant.Status = models.TenantStatusSuspended
	suite.mockRepo.On("GetBySubdomain", mock.Anything, "acme").Return(suite.tenant, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "acme.crmhub.io"

	_, err := suite.invoke(req, unreachableHandler(suite.T()))
	assertHTTPStatus(suite.T(), err, http.StatusForbidden)
}

func (suite *TenancyMiddlewareTestSuite) TestDoubleBindRejected() {
	router, _ := NewScopeRouter(nil, StrategyRow)
	scope, _ := router.Bind(context.Background(), suite.tenant)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads", nil)
	req.Host = "acme.crmhub.io"
	req = req.WithContext(WithScope(req.Context(), scope))

	_, err := suite.invoke(req, unreachableHandler(suite.T()))
	assertHTTPStatus(suite.T(), err, http.StatusInternalServerError)
}

func unreachableHandler(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	}
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	httpErr, ok := err.(*echo.HTTPError)
	if assert.True(t, ok, "expected *echo.HTTPError, got %v", err) {
		assert.Equal(t, want, httpErr.Code)
	}
}
