/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package booking serves a host's meeting types and the start times a guest
// may book for them.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/busy"
	"github.com/friendsincode/slotwise/internal/cache"
	"github.com/friendsincode/slotwise/internal/events"
)

// Booking errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

// ScheduleReader loads a host's weekly schedule; nil means none was saved.
type ScheduleReader interface {
	Get(ctx context.Context, hostID string) (*availability.Schedule, error)
}

// Options tunes the booking service.
type Options struct {
	SlotStep         time.Duration
	BusyFetchTimeout time.Duration
	Cache            *cache.Cache
	Bus              *events.Bus
}

// Service implements meeting type management and slot resolution.
type Service struct {
	db        *gorm.DB
	schedules ScheduleReader
	source    busy.Source
	resolver  *availability.Resolver
	cache     *cache.Cache
	bus       *events.Bus
	step      time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewService creates a booking service.
func NewService(db *gorm.DB, schedules ScheduleReader, source busy.Source, resolver *availability.Resolver, opts Options, logger zerolog.Logger) *Service {
	if opts.SlotStep <= 0 {
		opts.SlotStep = 15 * time.Minute
	}
	return &Service{
		db:        db,
		schedules: schedules,
		source:    source,
		resolver:  resolver,
		cache:     opts.Cache,
		bus:       opts.Bus,
		step:      opts.SlotStep,
		timeout:   opts.BusyFetchTimeout,
		logger:    logger.With().Str("component", "booking").Logger(),
	}
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus != nil {
		s.bus.Publish(eventType, payload)
	}
}
