/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"gorm.io/gorm"

	"github.com/friendsincode/slotwise/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Schedule{},
		&models.ScheduleAvailability{},
		&models.Event{},
		&models.CalendarToken{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	return applyPostgresWindowGuard(database)
}

// applyPostgresWindowGuard rejects inverted availability windows at the
// storage layer too. HH:MM strings compare correctly as text.
func applyPostgresWindowGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	return database.Exec(`
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_constraint WHERE conname = 'schedule_availabilities_window_check'
  ) THEN
    ALTER TABLE schedule_availabilities
      ADD CONSTRAINT schedule_availabilities_window_check CHECK (start_time < end_time);
  END IF;
END
$$;`).Error
}
