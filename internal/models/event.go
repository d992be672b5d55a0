/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Event is a bookable meeting type offered by a host.
type Event struct {
	ID                string `gorm:"type:uuid;primaryKey" json:"id"`
	HostID            string `gorm:"type:varchar(191);index:idx_events_host;not null" json:"host_id"`
	Name              string `gorm:"type:varchar(255);not null" json:"name"`
	Description       string `gorm:"type:text" json:"description,omitempty"`
	DurationInMinutes int    `gorm:"not null" json:"duration_in_minutes"`
	IsActive          bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Event) TableName() string {
	return "events"
}
