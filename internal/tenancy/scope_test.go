package tenancy

import (
	"context"
	"testing"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewScopeRouter_RejectsUnknownStrategy(t *testing.T) {
	_, err := NewScopeRouter(nil, Strategy("table"))
	assert.Error(t, err)

	_, err = NewScopeRouter(nil, StrategyRow)
	assert.NoError(t, err)

	_, err = NewScopeRouter(nil, StrategySchema)
	assert.NoError(t, err)
}

func TestBind_RowModeNeedsNoConnection(t *testing.T) {
	router, err := NewScopeRouter(nil, StrategyRow)
	assert.NoError(t, err)

	tenant := &models.Tenant{ID: uuid.New(), Subdomain: "acme"}
	scope, err := router.Bind(context.Background(), tenant)
	assert.NoError(t, err)
	assert.Equal(t, StrategyRow, scope.Strategy())
	assert.Equal(t, tenant, scope.Tenant())
}

func TestBind_SchemaModeRequiresSchemaName(t *testing.T) {
	router, err := NewScopeRouter(nil, StrategySchema)
	assert.NoError(t, err)

	tenant := &models.Tenant{ID: uuid.New(), Subdomain: "acme"}
	_, err = router.Bind(context.Background(), tenant)
	assert.Error(t, err)
}

func TestProvisionSchema_NoopInRowMode(t *testing.T) {
	router, err := NewScopeRouter(nil, StrategyRow)
	assert.NoError(t, err)

	err = router.ProvisionSchema(context.Background(), &models.Tenant{ID: uuid.New()})
	assert.NoError(t, err)
}

func TestScope_ReleasedScopeRefusesQueries(t *testing.T) {
	router, _ := NewScopeRouter(nil, StrategyRow)
	tenant := &models.Tenant{ID: uuid.New()}
	scope, err := router.Bind(context.Background(), tenant)
	assert.NoError(t, err)

	scope.Release(context.Background())

	_, err = scope.Exec(context.Background(), `UPDATE leads SET score = 0`)
	assert.ErrorIs(t, err, ErrScopeReleased)

	_, err = scope.Query(context.Background(), `SELECT 1`)
	assert.ErrorIs(t, err, ErrScopeReleased)
}

func TestScope_ReleaseIsIdempotent(t *testing.T) {
	router, _ := NewScopeRouter(nil, StrategyRow)
	scope, err := router.Bind(context.Background(), &models.Tenant{ID: uuid.New()})
	assert.NoError(t, err)

	scope.Release(context.Background())
	scope.Release(context.Background())
}

func TestScopeContext_RoundTrip(t *testing.T) {
	router, _ := NewScopeRouter(nil, StrategyRow)
	scope, _ := router.Bind(context.Background(), &models.Tenant{ID: uuid.New()})

	_, ok := ScopeFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithScope(context.Background(), scope)
	got, ok := ScopeFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, scope, got)
}
