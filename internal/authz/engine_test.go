package authz

import (
	"context"
	"testing"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Policy), args.Error(1)
}

func (m *MockPolicyRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Policy, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Policy), args.Error(1)
}

type EngineTestSuite struct {
	suite.Suite
	mockRepo *MockPolicyRepository
	engine   *Engine
	tenantID uuid.UUID
	ctx      context.Context
}

func (suite *EngineTestSuite) SetupTest() {
	suite.mockRepo = &MockPolicyRepository{}
	suite.mockRepo.Test(suite.T())
	suite.engine = NewEngine(suite.mockRepo, nil)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) policies(rules ...[3]string) []*models.Policy {
	out := make([]*models.Policy, 0, len(rules))
	for _, r := range rules {
		out = append(out, &models.Policy{
			ID:       uuid.New(),
			TenantID: suite.tenantID,
			Role:     models.RoleMember,
			Resource: r[0],
			Action:   r[1],
			Effect:   r[2],
		})
	}
	return out
}

func (suite *EngineTestSuite) TestAllowed_ExactMatch() {
	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(suite.policies([3]string{"lead", "create", models.PolicyEffectAllow}), nil)

	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "lead", "create")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *EngineTestSuite) TestAllowed_DefaultDeny() {
	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(suite.policies(), nil)

	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "coupon", "create")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *EngineTestSuite) TestAllowed_DenyOverridesAllow() {
	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(suite.policies(
			[3]string{"*", "*", models.PolicyEffectAllow},
			[3]string{"tenant", "delete", models.PolicyEffectDeny},
		), nil)

	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "tenant", "delete")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)

	ok, err = suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "tenant", "update")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *EngineTestSuite) TestAllowed_WildcardAction() {
	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(suite.policies([3]string{"lead", "*", models.PolicyEffectAllow}), nil)

	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "lead", "delete")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	ok, err = suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "order", "delete")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *EngineTestSuite) TestAllowed_UnmatchedRuleIgnored() {
	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(suite.policies([3]string{"lead", "read", models.PolicyEffectDeny}), nil)

	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "opportunity", "read")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *EngineTestSuite) TestSeedDefaults_MemberCannotDeleteTenant() {
	var seeded []*models.Policy
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Policy")).
		Return(nil).
		Run(func(args mock.Arguments) {
			seeded = append(seeded, args.Get(1).(*models.Policy))
		})

	err := suite.engine.SeedDefaults(suite.ctx, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), seeded)

	// Evaluate the seeded set directly to confirm the baseline shape.
	byRole := func(role string) []*models.Policy {
		var out []*models.Policy
		for _, p := range seeded {
			if p.Role == role {
				out = append(out, p)
			}
		}
		return out
	}

	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleAdmin).
		Return(byRole(models.RoleAdmin), nil)
	ok, err := suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleAdmin, "tenant", "delete")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)

	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleOwner).
		Return(byRole(models.RoleOwner), nil)
	ok, err = suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleOwner, "tenant", "delete")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	suite.mockRepo.On("ListByRole", suite.ctx, suite.tenantID, models.RoleMember).
		Return(byRole(models.RoleMember), nil)
	ok, err = suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "lead", "create")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	ok, err = suite.engine.Allowed(suite.ctx, suite.tenantID, models.RoleMember, "coupon", "create")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}
