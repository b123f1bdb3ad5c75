package repositories

import (
	"context"
	"time"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	ListByRecord(ctx context.Context, tenantID uuid.UUID, tableName, recordID string) ([]*models.AuditLog, error)
	DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, tenant_id, user_id, table_name, record_id, action, old_values, new_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.TenantID, entry.UserID, entry.TableName,
		entry.RecordID, entry.Action, entry.OldValues, entry.NewValues)
	return err
}

func (r *auditLogsRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, user_id, table_name, record_id, action, old_values, new_values, created_at
		FROM audit_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *auditLogsRepo) ListByRecord(ctx context.Context, tenantID uuid.UUID, tableName, recordID string) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, user_id, table_name, record_id, action, old_values, new_values, created_at
		FROM audit_logs
		WHERE tenant_id = $1 AND table_name = $2 AND record_id = $3
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, tableName, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *auditLogsRepo) DeleteOlderThan(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (int64, error) {
	query := `DELETE FROM audit_logs WHERE tenant_id = $1 AND created_at < $2`
	tag, err := r.db.Exec(ctx, query, tenantID, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAuditLogs(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.UserID, &entry.TableName, &entry.RecordID,
			&entry.Action, &entry.OldValues, &entry.NewValues, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
