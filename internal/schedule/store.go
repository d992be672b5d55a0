/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule persists host weekly availability.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/cache"
	"github.com/friendsincode/slotwise/internal/events"
	"github.com/friendsincode/slotwise/internal/models"
)

// Store reads and replaces host schedules.
type Store struct {
	db     *gorm.DB
	cache  *cache.Cache
	bus    *events.Bus
	logger zerolog.Logger
}

// NewStore creates a schedule store. cache and bus may be nil.
func NewStore(db *gorm.DB, c *cache.Cache, bus *events.Bus, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		cache:  c,
		bus:    bus,
		logger: logger.With().Str("component", "schedule_store").Logger(),
	}
}

// Get returns the schedule for host, or nil when the host never saved one.
func (s *Store) Get(ctx context.Context, hostID string) (*availability.Schedule, error) {
	if cached, ok := s.cache.GetSchedule(ctx, hostID); ok {
		if !cached.Found {
			return nil, nil
		}
		return cached.Schedule, nil
	}

	var row models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Availabilities").
		Where("host_id = ?", hostID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if cerr := s.cache.SetSchedule(ctx, hostID, nil); cerr != nil {
			s.logger.Debug().Err(cerr).Str("host_id", hostID).Msg("cache schedule absence")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	sched := toSchedule(row)
	if cerr := s.cache.SetSchedule(ctx, hostID, sched); cerr != nil {
		s.logger.Debug().Err(cerr).Str("host_id", hostID).Msg("cache schedule")
	}
	return sched, nil
}

// Save validates and atomically replaces the host's timezone and entries.
func (s *Store) Save(ctx context.Context, hostID, timezone string, entries []availability.WeeklyAvailability) (*availability.Schedule, error) {
	if hostID == "" {
		return nil, fmt.Errorf("host id is required")
	}
	normalized, err := normalize(entries)
	if err != nil {
		return nil, err
	}
	sched := &availability.Schedule{HostID: hostID, Timezone: timezone, Availabilities: normalized}
	if err := sched.Validate(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Schedule{
			ID:       uuid.NewString(),
			HostID:   hostID,
			Timezone: timezone,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "host_id"}},
			DoUpdates: clause.Assignments(map[string]any{"timezone": timezone, "updated_at": time.Now()}),
		}).Omit("Availabilities").Create(&row).Error; err != nil {
			return fmt.Errorf("upsert schedule: %w", err)
		}

		// The upsert keeps the existing id on conflict, so row.ID may be stale.
		var existing models.Schedule
		if err := tx.Select("id").Where("host_id = ?", hostID).Take(&existing).Error; err != nil {
			return fmt.Errorf("reload schedule: %w", err)
		}

		if err := tx.Where("schedule_id = ?", existing.ID).Delete(&models.ScheduleAvailability{}).Error; err != nil {
			return fmt.Errorf("clear availabilities: %w", err)
		}

		if len(normalized) == 0 {
			return nil
		}
		rows := make([]models.ScheduleAvailability, len(normalized))
		for i, a := range normalized {
			rows[i] = models.ScheduleAvailability{
				ID:         uuid.NewString(),
				ScheduleID: existing.ID,
				DayOfWeek:  string(a.Day),
				StartTime:  a.Start,
				EndTime:    a.End,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert availabilities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cerr := s.cache.InvalidateSchedule(ctx, hostID); cerr != nil {
		s.logger.Warn().Err(cerr).Str("host_id", hostID).Msg("invalidate cached schedule")
	}
	if s.bus != nil {
		s.bus.Publish(events.EventScheduleSaved, events.Payload{
			"host_id":        hostID,
			"timezone":       timezone,
			"availabilities": len(normalized),
		})
	}

	s.logger.Info().
		Str("host_id", hostID).
		Str("timezone", timezone).
		Int("availabilities", len(normalized)).
		Msg("schedule saved")

	sortEntries(sched.Availabilities)
	return sched, nil
}

// normalize canonicalizes day names and times so stored rows compare as text.
func normalize(entries []availability.WeeklyAvailability) ([]availability.WeeklyAvailability, error) {
	out := make([]availability.WeeklyAvailability, 0, len(entries))
	for i, e := range entries {
		day, err := availability.ParseWeekday(string(e.Day))
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		start, err := availability.ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		end, err := availability.ParseTimeOfDay(e.End)
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		out = append(out, availability.WeeklyAvailability{Day: day, Start: start.String(), End: end.String()})
	}
	return out, nil
}

func toSchedule(row models.Schedule) *availability.Schedule {
	entries := make([]availability.WeeklyAvailability, len(row.Availabilities))
	for i, a := range row.Availabilities {
		entries[i] = availability.WeeklyAvailability{
			Day:   availability.Weekday(a.DayOfWeek),
			Start: a.StartTime,
			End:   a.EndTime,
		}
	}
	sortEntries(entries)
	return &availability.Schedule{
		HostID:         row.HostID,
		Timezone:       row.Timezone,
		Availabilities: entries,
	}
}

// sortEntries orders by day of week then start time. Times are canonical
// HH:MM so text order is chronological.
func sortEntries(entries []availability.WeeklyAvailability) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Day.Index(), entries[j].Day.Index()
		if di != dj {
			return di < dj
		}
		return entries[i].Start < entries[j].Start
	})
}
