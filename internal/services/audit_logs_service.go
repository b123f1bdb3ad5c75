package services

import (
	"context"
	"errors"
	"time"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error

	LogEntityCreate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB) error
	LogEntityUpdate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error
	LogEntityDelete(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB) error

	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	GetEntityHistory(ctx context.Context, tenantID uuid.UUID, tableName, recordID string) ([]*models.AuditLog, error)
	PurgeOlderThan(ctx context.Context, tenantID uuid.UUID, retention time.Duration) (int64, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditLogsRepo: auditLogsRepo}
}

func (s *auditLogsService) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	if tableName == "" {
		return errors.New("table_name is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	entry := &models.AuditLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    changedBy,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		CreatedAt: time.Now(),
	}
	return s.auditLogsRepo.Create(ctx, entry)
}

func (s *auditLogsService) LogEntityCreate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, "create", changedBy, nil, newValues)
}

func (s *auditLogsService) LogEntityUpdate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, "update", changedBy, oldValues, newValues)
}

func (s *auditLogsService) LogEntityDelete(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, "delete", changedBy, oldValues, nil)
}

func (s *auditLogsService) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.auditLogsRepo.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *auditLogsService) GetEntityHistory(ctx context.Context, tenantID uuid.UUID, tableName, recordID string) ([]*models.AuditLog, error) {
	if tableName == "" || recordID == "" {
		return nil, errors.New("table_name and record_id are required")
	}
	return s.auditLogsRepo.ListByRecord(ctx, tenantID, tableName, recordID)
}

func (s *auditLogsService) PurgeOlderThan(ctx context.Context, tenantID uuid.UUID, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.auditLogsRepo.DeleteOlderThan(ctx, tenantID, cutoff)
}
