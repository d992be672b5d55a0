/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// AuditAction defines the type of audited action.
type AuditAction string

// Audit action constants for host-facing changes.
const (
	AuditActionScheduleSave AuditAction = "schedule.save"
	AuditActionEventCreate  AuditAction = "event.create"
	AuditActionEventUpdate  AuditAction = "event.update"
	AuditActionEventDelete  AuditAction = "event.delete"
)

// AuditLog records a change a host made to their schedule or meeting types.
type AuditLog struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"index:idx_audit_timestamp;not null" json:"timestamp"`
	HostID       string         `gorm:"type:varchar(191);index:idx_audit_host;not null" json:"host_id"`
	Action       AuditAction    `gorm:"type:varchar(64);index:idx_audit_action;not null" json:"action"`
	ResourceType string         `gorm:"type:varchar(64)" json:"resource_type"` // "schedule" or "event"
	ResourceID   string         `gorm:"type:varchar(191)" json:"resource_id,omitempty"`
	Details      map[string]any `gorm:"type:text;serializer:json" json:"details,omitempty"`
	CreatedAt    time.Time      `json:"-"`
}

// TableName returns the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
