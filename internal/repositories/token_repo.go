package repositories

import (
	"context"
	"time"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tenantID, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, tenantID, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type tokenRepo struct {
	db Database
}

func NewTokenRepo(db Database) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, tenant_id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW())
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.TenantID, token.UserID, token.TokenHash, token.ExpiresAt)
	return err
}

func (r *tokenRepo) GetByHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	query := `
		SELECT id, tenant_id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE tenant_id = $1 AND token_hash = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, tokenHash).Scan(&token.ID, &token.TenantID, &token.UserID,
		&token.TokenHash, &token.ExpiresAt, &token.Revoked, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *tokenRepo) RevokeAllForUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE tenant_id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, userID)
	return err
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
