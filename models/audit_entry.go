package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// AuditEntry records one mutation attempt against the backend directory.
// Entries are written for failures too, so a stale list after a reload
// failure can still be traced back to the mutation that succeeded upstream.
type AuditEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Action        string          `gorm:"size:64;not null;index:idx_audit_entries_action" json:"action"`
	ZoneName      *string         `gorm:"size:255;index:idx_audit_entries_zone_name" json:"zone_name,omitempty"`
	TargetID      *int64          `gorm:"index:idx_audit_entries_target_id" json:"target_id,omitempty"`
	RequestID     *string         `gorm:"size:255;index:idx_audit_entries_request_id" json:"request_id,omitempty"`
	ChangedFields pq.StringArray  `gorm:"type:text[]" json:"changed_fields,omitempty"`
	Metadata      json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success       *bool           `gorm:"default:true;index:idx_audit_entries_success" json:"success"`
	ErrorMessage  *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_entries_created_at" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

// Audit action constants
const (
	AuditActionChargeRouteCreated      = "charge_route_created"
	AuditActionChargeRouteCreateFailed = "charge_route_create_failed"
	AuditActionChargeRouteUpdated      = "charge_route_updated"
	AuditActionChargeRouteUpdateFailed = "charge_route_update_failed"
	AuditActionChargeRouteDeleted      = "charge_route_deleted"
	AuditActionChargeRouteDeleteFailed = "charge_route_delete_failed"
	AuditActionDirectoryExported       = "directory_exported"
)

// AuditEntryFilter represents filter criteria for audit entry queries
type AuditEntryFilter struct {
	ID            *uint
	Action        *string
	ZoneName      *string
	TargetID      *int64
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditEntry) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
