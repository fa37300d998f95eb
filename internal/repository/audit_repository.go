package repository

import (
	"context"

	"gorm.io/gorm"

	"tlgsite/internal/model"
)

// AuditRepository defines audit log persistence operations.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
	ListByRecord(ctx context.Context, collection, recordID string) ([]model.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create creates a new audit entry.
func (r *auditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent returns the newest entries first.
func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.AuditEntry
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByRecord returns the history of one record, oldest first.
func (r *auditRepository) ListByRecord(ctx context.Context, collection, recordID string) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := r.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, recordID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
