/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Schedule holds a host's timezone. Exactly one per host.
type Schedule struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	HostID   string `gorm:"type:varchar(191);uniqueIndex:idx_schedules_host;not null" json:"host_id"`
	Timezone string `gorm:"type:varchar(64);not null" json:"timezone"`

	Availabilities []ScheduleAvailability `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"availabilities"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Schedule) TableName() string {
	return "schedules"
}

// ScheduleAvailability is one recurring weekly window of a schedule.
// Rows are replaced wholesale whenever the schedule is saved.
type ScheduleAvailability struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ScheduleID string `gorm:"type:uuid;index:idx_schedule_availabilities_schedule;not null" json:"schedule_id"`
	DayOfWeek  string `gorm:"type:varchar(9);not null" json:"day_of_week"` // monday..sunday
	StartTime  string `gorm:"type:varchar(5);not null" json:"start_time"`  // HH:MM
	EndTime    string `gorm:"type:varchar(5);not null" json:"end_time"`    // HH:MM
}

// TableName returns the table name for GORM.
func (ScheduleAvailability) TableName() string {
	return "schedule_availabilities"
}
