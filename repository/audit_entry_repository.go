// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/quickship/charge-console/models"
	"gorm.io/gorm"
)

// AuditEntryRepositoryImpl implements AuditEntryRepository interface
type AuditEntryRepositoryImpl struct {
	*BaseRepository[models.AuditEntry, models.AuditEntryFilter]
}

// NewAuditEntryRepository creates a new audit entry repository
func NewAuditEntryRepository(db *gorm.DB) AuditEntryRepository {
	return &AuditEntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditEntry, models.AuditEntryFilter](db),
	}
}

// ListByAction retrieves audit entries for a specific action with pagination
func (r *AuditEntryRepositoryImpl) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.AuditEntry
	err := db.Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries by action: %w", err)
	}

	return entries, nil
}

// ListByZone retrieves audit entries for a specific zone with pagination
func (r *AuditEntryRepositoryImpl) ListByZone(ctx context.Context, zoneName string, limit, offset int) ([]*models.AuditEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.AuditEntry
	err := db.Where("zone_name = ?", zoneName).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries by zone: %w", err)
	}

	return entries, nil
}

// ListFailed retrieves all failed mutation attempts with pagination
func (r *AuditEntryRepositoryImpl) ListFailed(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.AuditEntry
	err := db.Where("success = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list failed audit entries: %w", err)
	}

	return entries, nil
}
