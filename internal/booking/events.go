/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/slotwise/internal/cache"
	"github.com/friendsincode/slotwise/internal/events"
	"github.com/friendsincode/slotwise/internal/models"
)

// maxDurationMinutes caps a meeting at twelve hours.
const maxDurationMinutes = 12 * 60

// EventInput carries the editable fields of a meeting type.
type EventInput struct {
	Name              string `json:"name" validate:"required,max=255"`
	Description       string `json:"description" validate:"max=2000"`
	DurationInMinutes int    `json:"duration_in_minutes" validate:"required,gt=0,lte=720"`
	IsActive          bool   `json:"is_active"`
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	if in.DurationInMinutes <= 0 || in.DurationInMinutes > maxDurationMinutes {
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalidEvent, maxDurationMinutes)
	}
	return nil
}

// ListEvents returns all meeting types of host ordered by name, ignoring case.
func (s *Service) ListEvents(ctx context.Context, hostID string) ([]models.Event, error) {
	var list []models.Event
	err := s.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("LOWER(name) ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// ListActiveEvents returns the bookable meeting types of host.
func (s *Service) ListActiveEvents(ctx context.Context, hostID string) ([]cache.CachedEvent, error) {
	if cached, ok := s.cache.GetEventList(ctx, hostID); ok {
		return cached, nil
	}

	var list []models.Event
	err := s.db.WithContext(ctx).
		Where("host_id = ? AND is_active = ?", hostID, true).
		Order("LOWER(name) ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list active events: %w", err)
	}

	out := make([]cache.CachedEvent, len(list))
	for i, ev := range list {
		out[i] = cache.CachedEvent{
			ID:                ev.ID,
			Name:              ev.Name,
			Description:       ev.Description,
			DurationInMinutes: ev.DurationInMinutes,
		}
	}
	if err := s.cache.SetEventList(ctx, hostID, out); err != nil {
		s.logger.Debug().Err(err).Str("host_id", hostID).Msg("cache event list")
	}
	return out, nil
}

// GetEvent returns an active meeting type of host.
func (s *Service) GetEvent(ctx context.Context, hostID, eventID string) (*models.Event, error) {
	var ev models.Event
	err := s.db.WithContext(ctx).
		Where("id = ? AND host_id = ? AND is_active = ?", eventID, hostID, true).
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	return &ev, nil
}

// GetOwnEvent returns a meeting type of host regardless of its active flag.
func (s *Service) GetOwnEvent(ctx context.Context, hostID, eventID string) (*models.Event, error) {
	var ev models.Event
	err := s.db.WithContext(ctx).
		Where("id = ? AND host_id = ?", eventID, hostID).
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	return &ev, nil
}

// CreateEvent adds a meeting type for host.
func (s *Service) CreateEvent(ctx context.Context, hostID string, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ev := models.Event{
		ID:                uuid.NewString(),
		HostID:            hostID,
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		DurationInMinutes: in.DurationInMinutes,
		IsActive:          in.IsActive,
	}
	// Select forces a false IsActive past the column default.
	if err := s.db.WithContext(ctx).Select("*").Create(&ev).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.changed(ctx, events.EventEventCreated, hostID, ev.ID)
	return &ev, nil
}

// UpdateEvent replaces the editable fields of a meeting type owned by host.
func (s *Service) UpdateEvent(ctx context.Context, hostID, eventID string, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ev, err := s.GetOwnEvent(ctx, hostID, eventID)
	if err != nil {
		return nil, err
	}
	ev.Name = strings.TrimSpace(in.Name)
	ev.Description = in.Description
	ev.DurationInMinutes = in.DurationInMinutes
	ev.IsActive = in.IsActive
	err = s.db.WithContext(ctx).
		Model(ev).
		Where("host_id = ?", hostID).
		Updates(map[string]any{
			"name":                ev.Name,
			"description":         ev.Description,
			"duration_in_minutes": ev.DurationInMinutes,
			"is_active":           ev.IsActive,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.changed(ctx, events.EventEventUpdated, hostID, eventID)
	return ev, nil
}

// DeleteEvent removes a meeting type owned by host.
func (s *Service) DeleteEvent(ctx context.Context, hostID, eventID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND host_id = ?", eventID, hostID).
		Delete(&models.Event{})
	if result.Error != nil {
		return fmt.Errorf("delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	s.changed(ctx, events.EventEventDeleted, hostID, eventID)
	return nil
}

func (s *Service) changed(ctx context.Context, eventType events.EventType, hostID, eventID string) {
	if err := s.cache.InvalidateEventList(ctx, hostID); err != nil {
		s.logger.Warn().Err(err).Str("host_id", hostID).Msg("invalidate cached events")
	}
	s.publish(eventType, events.Payload{"host_id": hostID, "event_id": eventID})
	s.logger.Info().
		Str("host_id", hostID).
		Str("event_id", eventID).
		Str("change", string(eventType)).
		Msg("event changed")
}
