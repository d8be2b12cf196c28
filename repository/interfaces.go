// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/quickship/charge-console/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// AuditEntryRepository defines operations for the local audit trail
type AuditEntryRepository interface {
	Repository[models.AuditEntry, models.AuditEntryFilter]
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditEntry, error)
	ListByZone(ctx context.Context, zoneName string, limit, offset int) ([]*models.AuditEntry, error)
	ListFailed(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error)
}
