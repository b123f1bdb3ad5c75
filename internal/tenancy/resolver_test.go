package tenancy

import (
	"context"
	"testing"
	"time"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

type ResolverTestSuite struct {
	suite.Suite
	mockRepo *MockTenantRepository
	resolver *Resolver
	tenant   *models.Tenant
	ctx      context.Context
}

func (suite *ResolverTestSuite) SetupTest() {
	suite.mockRepo = &MockTenantRepository{}
	suite.mockRepo.Test(suite.T())
	suite.resolver = NewResolver(suite.mockRepo, nil, "crmhub.io")
	suite.tenant = &models.Tenant{
		ID:        uuid.New(),
		Name:      "Acme",
		Subdomain: "acme",
		Status:    models.TenantStatusActive,
	}
	suite.ctx = context.Background()
}

func (suite *ResolverTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func (suite *ResolverTestSuite) TestSubdomainFromHost() {
	cases := []struct {
		name string
		host string
		want string
	}{
		{"plain subdomain", "acme.crmhub.io", "acme"},
		{"with port", "acme.crmhub.io:8080", "acme"},
		{"uppercase host", "ACME.CRMHUB.IO", "acme"},
		{"trailing dot", "acme.crmhub.io.", "acme"},
		{"base domain itself", "crmhub.io", ""},
		{"unrelated domain", "acme.other.io", ""},
		{"suffix but not subdomain", "notcrmhub.io", ""},
		{"nested subdomain", "a.b.crmhub.io", ""},
		{"reserved www", "www.crmhub.io", ""},
		{"reserved api", "api.crmhub.io", ""},
		{"reserved admin", "admin.crmhub.io", ""},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			assert.Equal(suite.T(), tc.want, suite.resolver.SubdomainFromHost(tc.host))
		})
	}
}

func (suite *ResolverTestSuite) TestResolve_BySubdomain() {
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	tenant, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenant.ID, tenant.ID)
}

func (suite *ResolverTestSuite) TestResolve_ByHeader() {
	suite.mockRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)

	tenant, err := suite.resolver.Resolve(suite.ctx, "crmhub.io", suite.tenant.ID.String())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenant.ID, tenant.ID)
}

func (suite *ResolverTestSuite) TestResolve_SubdomainAndHeaderAgree() {
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	tenant, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", suite.tenant.ID.String())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenant.ID, tenant.ID)
}

func (suite *ResolverTestSuite) TestResolve_SubdomainAndHeaderDisagree() {
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	_, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", uuid.New().String())
	assert.ErrorIs(suite.T(), err, ErrAmbiguousTenant)
}

func (suite *ResolverTestSuite) TestResolve_NoTenantIdentified() {
	_, err := suite.resolver.Resolve(suite.ctx, "crmhub.io", "")
	assert.ErrorIs(suite.T(), err, ErrNoTenant)
}

func (suite *ResolverTestSuite) TestResolve_UnknownSubdomain() {
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "ghost").Return(nil, pgx.ErrNoRows)

	_, err := suite.resolver.Resolve(suite.ctx, "ghost.crmhub.io", "")
	assert.ErrorIs(suite.T(), err, ErrUnknownTenant)
}

func (suite *ResolverTestSuite) TestResolve_MalformedHeader() {
	// A malformed header must not fall through to subdomain-only
	// resolution or leak a parse error.
	_, err := suite.resolver.Resolve(suite.ctx, "crmhub.io", "not-a-uuid")
	assert.ErrorIs(suite.T(), err, ErrUnknownTenant)
}

func (suite *ResolverTestSuite) TestResolve_SuspendedTenant() {
	suite.tenant.Status = models.TenantStatusSuspended
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	_, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", "")
	assert.ErrorIs(suite.T(), err, ErrTenantSuspended)
}

func (suite *ResolverTestSuite) TestResolve_TrialExpired() {
	ended := time.Now().Add(-time.Hour)
	suite.tenant.Status = models.TenantStatusTrial
	suite.tenant.TrialEndsAt = &ended
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	_, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", "")
	assert.ErrorIs(suite.T(), err, ErrTrialExpired)
}

func (suite *ResolverTestSuite) TestResolve_TrialStillRunning() {
	ends := time.Now().Add(24 * time.Hour)
	suite.tenant.Status = models.TenantStatusTrial
	suite.tenant.TrialEndsAt = &ends
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	tenant, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenant.ID, tenant.ID)
}

func (suite *ResolverTestSuite) TestResolve_TrialExpiresAtExactBoundary() {
	ends := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.tenant.Status = models.TenantStatusTrial
	suite.tenant.TrialEndsAt = &ends
	suite.resolver.now = func() time.Time { return ends }
	suite.mockRepo.On("GetBySubdomain", suite.ctx, "acme").Return(suite.tenant, nil)

	_, err := suite.resolver.Resolve(suite.ctx, "acme.crmhub.io", "")
	assert.ErrorIs(suite.T(), err, ErrTrialExpired)
}

func (suite *ResolverTestSuite) TestByID_Unknown() {
	id := uuid.New()
	suite.mockRepo.On("GetByID", suite.ctx, id).Return(nil, pgx.ErrNoRows)

	_, err := suite.resolver.ByID(suite.ctx, id)
	assert.ErrorIs(suite.T(), err, ErrUnknownTenant)
}

func TestReservedSubdomain(t *testing.T) {
	assert.True(t, ReservedSubdomain("www"))
	assert.True(t, ReservedSubdomain("API"))
	assert.True(t, ReservedSubdomain("admin"))
	assert.False(t, ReservedSubdomain("acme"))
}
