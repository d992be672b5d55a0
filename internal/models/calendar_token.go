/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// CalendarToken is the OAuth token a host granted for reading their calendar.
// Tokens are written by the sign-in flow, which lives outside this service.
type CalendarToken struct {
	HostID       string     `gorm:"type:varchar(191);primaryKey" json:"host_id"`
	Provider     string     `gorm:"type:varchar(32);not null;default:'google'" json:"provider"`
	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	TokenType    string     `gorm:"type:varchar(32)" json:"token_type,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (CalendarToken) TableName() string {
	return "calendar_tokens"
}
