/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/slotwise/internal/events"
	"github.com/friendsincode/slotwise/internal/models"
)

// actions maps bus events to the audit action they record.
var actions = map[events.EventType]models.AuditAction{
	events.EventScheduleSaved: models.AuditActionScheduleSave,
	events.EventEventCreated:  models.AuditActionEventCreate,
	events.EventEventUpdated:  models.AuditActionEventUpdate,
	events.EventEventDeleted:  models.AuditActionEventDelete,
}

// Service handles audit logging by subscribing to events and storing audit entries.
type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		now:    time.Now,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Start subscribes to host change events and logs them until ctx is done.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Msg("audit service starting")

	scheduleSaved := s.bus.Subscribe(events.EventScheduleSaved)
	eventCreated := s.bus.Subscribe(events.EventEventCreated)
	eventUpdated := s.bus.Subscribe(events.EventEventUpdated)
	eventDeleted := s.bus.Subscribe(events.EventEventDeleted)

	defer func() {
		s.bus.Unsubscribe(events.EventScheduleSaved, scheduleSaved)
		s.bus.Unsubscribe(events.EventEventCreated, eventCreated)
		s.bus.Unsubscribe(events.EventEventUpdated, eventUpdated)
		s.bus.Unsubscribe(events.EventEventDeleted, eventDeleted)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("audit service stopping")
			return

		case payload := <-scheduleSaved:
			s.logAuditEntry(ctx, events.EventScheduleSaved, payload)

		case payload := <-eventCreated:
			s.logAuditEntry(ctx, events.EventEventCreated, payload)

		case payload := <-eventUpdated:
			s.logAuditEntry(ctx, events.EventEventUpdated, payload)

		case payload := <-eventDeleted:
			s.logAuditEntry(ctx, events.EventEventDeleted, payload)
		}
	}
}

// logAuditEntry creates an audit log entry from an event payload.
func (s *Service) logAuditEntry(ctx context.Context, eventType events.EventType, payload events.Payload) {
	entry := entryFor(eventType, payload)
	if entry.HostID == "" {
		s.logger.Warn().Str("event", string(eventType)).Msg("event without host_id, not audited")
		return
	}
	if err := s.Log(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", string(entry.Action)).
			Msg("failed to log audit entry")
	}
}

func entryFor(eventType events.EventType, payload events.Payload) *models.AuditLog {
	entry := &models.AuditLog{
		Action:  actions[eventType],
		Details: make(map[string]any),
	}
	if hostID, ok := payload["host_id"].(string); ok {
		entry.HostID = hostID
	}
	if eventID, ok := payload["event_id"].(string); ok && eventID != "" {
		entry.ResourceType = "event"
		entry.ResourceID = eventID
	} else {
		entry.ResourceType = "schedule"
		entry.ResourceID = entry.HostID
	}

	for k, v := range payload {
		switch k {
		case "host_id", "event_id":
			// Already extracted
		default:
			entry.Details[k] = v
		}
	}
	return entry
}

// Log records an audit entry directly (for non-event-bus actions).
func (s *Service) Log(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.Details == nil {
		entry.Details = make(map[string]any)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}

	s.logger.Debug().
		Str("action", string(entry.Action)).
		Str("id", entry.ID).
		Msg("audit entry logged")

	return nil
}

// QueryFilters defines filters for querying audit logs.
type QueryFilters struct {
	HostID    string
	Action    *models.AuditAction
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// Query retrieves audit logs with filters, most recent first.
func (s *Service) Query(ctx context.Context, filters QueryFilters) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("host_id = ?", filters.HostID)

	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.StartTime != nil {
		query = query.Where("timestamp >= ?", *filters.StartTime)
	}
	if filters.EndTime != nil {
		query = query.Where("timestamp <= ?", *filters.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	} else {
		query = query.Limit(100)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
