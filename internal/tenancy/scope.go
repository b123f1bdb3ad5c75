package tenancy

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Strategy selects how tenant isolation is enforced at the database.
type Strategy string

const (
	// StrategyRow keeps all tenants in shared tables; every query is
	// scoped by a tenant_id column.
	StrategyRow Strategy = "row"
	// StrategySchema pins each request to a dedicated connection whose
	// search_path points at the tenant's schema.
	StrategySchema Strategy = "schema"
)

var ErrScopeReleased = errors.New("scope already released")

type scopeContextKey struct{}

// Scope is the per-request tenant boundary. It is immutable after Bind
// and carries the tenant plus, in schema mode, the pinned connection.
type Scope struct {
	tenant   *models.Tenant
	strategy Strategy
	pool     *pgxpool.Pool
	conn     *pgxpool.Conn // non-nil only in schema mode
	released atomic.Bool
}

func (s *Scope) Tenant() *models.Tenant { return s.tenant }
func (s *Scope) Strategy() Strategy     { return s.strategy }

// Release returns the pinned connection to the pool after resetting its
// search_path. Safe to call more than once; only the first call acts.
func (s *Scope) Release(ctx context.Context) {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.conn == nil {
		return
	}
	// Reset before release so the next borrower starts from the default path.
	_, _ = s.conn.Exec(ctx, `SET search_path TO public`)
	s.conn.Release()
}

// Exec, Query and QueryRow route through the pinned connection in schema
// mode and through the shared pool otherwise, so repositories never see
// the difference.

func (s *Scope) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if s.released.Load() {
		return pgconn.CommandTag{}, ErrScopeReleased
	}
	if s.conn != nil {
		return s.conn.Exec(ctx, sql, arguments...)
	}
	return s.pool.Exec(ctx, sql, arguments...)
}

func (s *Scope) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.released.Load() {
		return nil, ErrScopeReleased
	}
	if s.conn != nil {
		return s.conn.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s *Scope) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.conn != nil {
		return s.conn.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

// ScopeRouter builds scopes for resolved tenants.
type ScopeRouter struct {
	pool     *pgxpool.Pool
	strategy Strategy
}

func NewScopeRouter(pool *pgxpool.Pool, strategy Strategy) (*ScopeRouter, error) {
	switch strategy {
	case StrategyRow, StrategySchema:
	default:
		return nil, fmt.Errorf("unknown tenancy strategy %q", strategy)
	}
	return &ScopeRouter{pool: pool, strategy: strategy}, nil
}

// Bind creates the scope for one request. In schema mode it acquires a
// connection and sets search_path to the tenant's schema; the caller
// must Release the scope when the request ends.
func (sr *ScopeRouter) Bind(ctx context.Context, tenant *models.Tenant) (*Scope, error) {
	scope := &Scope{tenant: tenant, strategy: sr.strategy, pool: sr.pool}
	if sr.strategy != StrategySchema {
		return scope, nil
	}

	if tenant.SchemaName == "" {
		return nil, fmt.Errorf("tenant %s has no schema name", tenant.ID)
	}
	conn, err := sr.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for tenant %s: %w", tenant.ID, err)
	}
	schema := pgx.Identifier{tenant.SchemaName}.Sanitize()
	if _, err := conn.Exec(ctx, `SET search_path TO `+schema+`, public`); err != nil {
		conn.Release()
		return nil, fmt.Errorf("set search_path for tenant %s: %w", tenant.ID, err)
	}
	scope.conn = conn
	return scope, nil
}

// ProvisionSchema creates a tenant's schema in schema mode. A no-op in
// row mode.
func (sr *ScopeRouter) ProvisionSchema(ctx context.Context, tenant *models.Tenant) error {
	if sr.strategy != StrategySchema {
		return nil
	}
	if tenant.SchemaName == "" {
		return fmt.Errorf("tenant %s has no schema name", tenant.ID)
	}
	schema := pgx.Identifier{tenant.SchemaName}.Sanitize()
	_, err := sr.pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+schema)
	return err
}

// WithScope binds a scope into the context for ContextDB to route through.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext returns the request's scope, if one is bound.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(*Scope)
	return scope, ok
}

// ContextDB routes repository queries through the scope bound to the
// request context and falls back to the shared pool when none is bound
// (startup work, jobs before binding). Repositories are constructed once
// against a ContextDB and become tenant-aware without knowing it.
type ContextDB struct {
	pool *pgxpool.Pool
}

func NewContextDB(pool *pgxpool.Pool) *ContextDB {
	return &ContextDB{pool: pool}
}

var _ repositories.Database = (*ContextDB)(nil)

func (db *ContextDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if scope, ok := ScopeFromContext(ctx); ok {
		return scope.Exec(ctx, sql, arguments...)
	}
	return db.pool.Exec(ctx, sql, arguments...)
}

func (db *ContextDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if scope, ok := ScopeFromContext(ctx); ok {
		return scope.Query(ctx, sql, args...)
	}
	return db.pool.Query(ctx, sql, args...)
}

func (db *ContextDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if scope, ok := ScopeFromContext(ctx); ok {
		return scope.QueryRow(ctx, sql, args...)
	}
	return db.pool.QueryRow(ctx, sql, args...)
}
