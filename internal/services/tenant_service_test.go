package services

import (
	"context"
	"testing"
	"time"

	"crmhub/internal/authz"
	"crmhub/internal/models"
	"crmhub/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
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

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Membership, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	args := m.Called(ctx, tenantID, userID, role)
	return args.Error(0)
}

func (m *MockMembershipRepository) TouchLastAccess(ctx context.Context, tenantID, userID uuid.UUID) error {
	args := m.Called(ctx, tenantID, userID)
	return args.Error(0)
}

func (m *MockMembershipRepository) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error {
	args := m.Called(ctx, tenantID, userID)
	return args.Error(0)
}

type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPolicyRepository) ListByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).([]*models.Policy), args.Error(1)
}

func (m *MockPolicyRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Policy, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.Policy), args.Error(1)
}

type TenantServiceTestSuite struct {
	suite.Suite
	mockTenants     *MockTenantRepository
	mockUsers       *MockUserRepository
	mockMemberships *MockMembershipRepository
	mockPolicies    *MockPolicyRepository
	service         TenantService
	ctx             context.Context
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.mockTenants = &MockTenantRepository{}
	suite.mockUsers = &MockUserRepository{}
	suite.mockMemberships = &MockMembershipRepository{}
	suite.mockPolicies = &MockPolicyRepository{}
	suite.mockTenants.Test(suite.T())
	suite.mockUsers.Test(suite.T())
	suite.mockMemberships.Test(suite.T())
	suite.mockPolicies.Test(suite.T())

	engine := authz.NewEngine(suite.mockPolicies, nil)
	router, err := tenancy.NewScopeRouter(nil, tenancy.StrategyRow)
	assert.NoError(suite.T(), err)

	suite.service = NewTenantService(
		suite.mockTenants,
		suite.mockUsers,
		suite.mockMemberships,
		engine,
		router,
		nil,
	)
	suite.ctx = context.Background()
}

func (suite *TenantServiceTestSuite) TearDownTest() {
	suite.mockTenants.AssertExpectations(suite.T())
	suite.mockUsers.AssertExpectations(suite.T())
	suite.mockMemberships.AssertExpectations(suite.T())
	suite.mockPolicies.AssertExpectations(suite.T())
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}

func (suite *TenantServiceTestSuite) onboardRequest() *OnboardTenantRequest {
	return &OnboardTenantRequest{
		Name:           "Acme Corp",
		Subdomain:      "acme-corp",
		OwnerEmail:     "Owner@Acme.example",
		OwnerPassword:  "s3cret-pass",
		OwnerFirstName: "Ada",
	}
}

func (suite *TenantServiceTestSuite) TestOnboard_Success() {
	suite.mockTenants.On("GetBySubdomain", suite.ctx, "acme-corp").Return(nil, pgx.ErrNoRows)

	var createdTenant *models.Tenant
	suite.mockTenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).
		Return(nil).
		Run(func(args mock.Arguments) {
			createdTenant = args.Get(1).(*models.Tenant)
		})

	var createdOwner *models.User
	suite.mockUsers.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).
		Return(nil).
		Run(func(args mock.Arguments) {
			createdOwner = args.Get(1).(*models.User)
		})

	suite.mockMemberships.On("Create", suite.ctx, mock.MatchedBy(func(m *models.Membership) bool {
		return m.Role == models.RoleOwner && m.Status == "active"
	})).Return(nil)

	suite.mockPolicies.On("Create", suite.ctx, mock.AnythingOfType("*models.Policy")).Return(nil)

	tenant, err := suite.service.Onboard(suite.ctx, suite.onboardRequest())
	assert.NoError(suite.T(), err)

	assert.Equal(suite.T(), models.TenantStatusTrial, tenant.Status)
	assert.Equal(suite.T(), "tenant_acme_corp", tenant.SchemaName)
	assert.Equal(suite.T(), 5, tenant.MaxUsers)
	assert.Equal(suite.T(), 100000, tenant.MaxAPICallsPerMonth)
	assert.NotNil(suite.T(), tenant.TrialEndsAt)
	assert.True(suite.T(), tenant.TrialEndsAt.After(time.Now().AddDate(0, 0, 13)))
	assert.Equal(suite.T(), createdTenant.ID, tenant.ID)

	// Owner email is normalized and the password stored hashed.
	assert.Equal(suite.T(), "owner@acme.example", createdOwner.Email)
	assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(createdOwner.PasswordHash), []byte("s3cret-pass")))
}

func (suite *TenantServiceTestSuite) TestOnboard_ReservedSubdomain() {
	req := suite.onboardRequest()
	req.Subdomain = "www"

	_, err := suite.service.Onboard(suite.ctx, req)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "reserved")
}

func (suite *TenantServiceTestSuite) TestOnboard_TakenSubdomain() {
	existing := &models.Tenant{ID: uuid.New(), Subdomain: "acme-corp"}
	suite.mockTenants.On("GetBySubdomain", suite.ctx, "acme-corp").Return(existing, nil)

	_, err := suite.service.Onboard(suite.ctx, suite.onboardRequest())
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "already taken")
}

func (suite *TenantServiceTestSuite) TestOnboard_ShortPassword() {
	req := suite.onboardRequest()
	req.OwnerPassword = "short"

	_, err := suite.service.Onboard(suite.ctx, req)
	assert.Error(suite.T(), err)
}

func (suite *TenantServiceTestSuite) TestOnboard_SubdomainCaseInsensitive() {
	req := suite.onboardRequest()
	req.Subdomain = "ACME-Corp"

	suite.mockTenants.On("GetBySubdomain", suite.ctx, "acme-corp").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("Create", suite.ctx, mock.MatchedBy(func(t *models.Tenant) bool {
		return t.Subdomain == "acme-corp"
	})).Return(nil)
	suite.mockUsers.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).Return(nil)
	suite.mockMemberships.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil)
	suite.mockPolicies.On("Create", suite.ctx, mock.AnythingOfType("*models.Policy")).Return(nil)

	tenant, err := suite.service.Onboard(suite.ctx, req)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "acme-corp", tenant.Subdomain)
}

func (suite *TenantServiceTestSuite) TestDeactivate_SoftDelete() {
	tenant := &models.Tenant{ID: uuid.New(), Subdomain: "acme-corp", Status: models.TenantStatusActive}

	suite.mockTenants.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.mockTenants.On("Deactivate", suite.ctx, tenant.ID).Return(nil)

	err := suite.service.Deactivate(suite.ctx, tenant.ID)
	assert.NoError(suite.T(), err)
}

func (suite *TenantServiceTestSuite) TestUpdate_PartialFieldsKept() {
	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     "Old Name",
		Plan:     "pro",
		Status:   models.TenantStatusActive,
		MaxUsers: 10,
	}

	suite.mockTenants.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.mockTenants.On("Update", suite.ctx, mock.MatchedBy(func(t *models.Tenant) bool {
		return t.Name == "New Name" && t.Plan == "pro" && t.MaxUsers == 10
	})).Return(nil)

	err := suite.service.Update(suite.ctx, &UpdateTenantRequest{
		ID:     tenant.ID,
		Name:   "New Name",
		Status: models.TenantStatusActive,
	})
	assert.NoError(suite.T(), err)
}
