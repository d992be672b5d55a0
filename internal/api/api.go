/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/friendsincode/slotwise/internal/auth"
	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/booking"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ScheduleStore reads and replaces host schedules.
type ScheduleStore interface {
	Get(ctx context.Context, hostID string) (*availability.Schedule, error)
	Save(ctx context.Context, hostID, timezone string, entries []availability.WeeklyAvailability) (*availability.Schedule, error)
}

// API exposes HTTP handlers.
type API struct {
	bookings  *booking.Service
	schedules ScheduleStore
	audit     AuditLog
	jwtSecret []byte
	rateLimit int
	validate  *validator.Validate
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates the API router wrapper. rateLimit is the per-IP request budget
// per minute on public booking routes; 0 disables limiting.
func New(bookings *booking.Service, schedules ScheduleStore, jwtSecret []byte, rateLimit int, logger zerolog.Logger) *API {
	return &API{
		bookings:  bookings,
		schedules: schedules,
		jwtSecret: jwtSecret,
		rateLimit: rateLimit,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers all HTTP routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		// Public booking pages
		r.Group(func(pr chi.Router) {
			if a.rateLimit > 0 {
				pr.Use(httprate.LimitByIP(a.rateLimit, time.Minute))
			}
			pr.Route("/book/{hostID}/events", func(r chi.Router) {
				r.Get("/", a.handlePublicEventsList)
				r.Get("/{eventID}", a.handlePublicEventGet)
				r.Get("/{eventID}/slots", a.handleSlots)
			})
		})

		// Host self-service
		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(a.jwtSecret))

			if a.audit != nil {
				pr.Get("/audit", a.handleAuditList)
			}

			pr.Get("/schedule", a.handleScheduleGet)
			pr.Put("/schedule", a.handleScheduleSave)

			pr.Route("/events", func(r chi.Router) {
				r.Get("/", a.handleEventsList)
				r.Post("/", a.handleEventsCreate)
				r.Route("/{eventID}", func(r chi.Router) {
					r.Get("/", a.handleEventsGet)
					r.Put("/", a.handleEventsUpdate)
					r.Delete("/", a.handleEventsDelete)
				})
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads and validates a request body into dest.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	if err := a.validate.Struct(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation_failed",
			"details": formatValidationErrors(err),
		})
		return false
	}
	return true
}

func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid input"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max", "lte":
			parts = append(parts, field+" must be at most "+fe.Param())
		case "gt":
			parts = append(parts, field+" must be greater than "+fe.Param())
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, ", ")
}

// isStoredDataError reports errors that, on read paths, mean a persisted
// schedule no longer passes validation.
func isStoredDataError(err error) bool {
	return errors.Is(err, availability.ErrUnknownTimezone) ||
		errors.Is(err, availability.ErrUnknownWeekday) ||
		errors.Is(err, availability.ErrMalformedTimeOfDay) ||
		errors.Is(err, availability.ErrInvalidWindow)
}

// writeServiceError maps domain errors to HTTP responses.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found")
	case errors.Is(err, booking.ErrInvalidEvent):
		writeError(w, http.StatusUnprocessableEntity, "invalid_event")
	case errors.Is(err, availability.ErrUnknownTimezone):
		writeError(w, http.StatusUnprocessableEntity, "unknown_timezone")
	case errors.Is(err, availability.ErrUnknownWeekday):
		writeError(w, http.StatusUnprocessableEntity, "unknown_weekday")
	case errors.Is(err, availability.ErrMalformedTimeOfDay):
		writeError(w, http.StatusUnprocessableEntity, "malformed_time")
	case errors.Is(err, availability.ErrInvalidWindow):
		writeError(w, http.StatusUnprocessableEntity, "invalid_window")
	case errors.Is(err, availability.ErrSourceUnavailable):
		a.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("busy source unavailable")
		writeError(w, http.StatusServiceUnavailable, "calendar_unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_cancelled")
	default:
		a.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
