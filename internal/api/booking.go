/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/cache"
)

// slotsResponse lists bookable start times rendered in the viewer's zone.
type slotsResponse struct {
	Event    cache.CachedEvent `json:"event"`
	Timezone string            `json:"timezone"`
	Slots    []time.Time       `json:"slots"`
}

func (a *API) handlePublicEventsList(w http.ResponseWriter, r *http.Request) {
	hostID := chi.URLParam(r, "hostID")
	list, err := a.bookings.ListActiveEvents(r.Context(), hostID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handlePublicEventGet(w http.ResponseWriter, r *http.Request) {
	ev, err := a.bookings.GetEvent(r.Context(), chi.URLParam(r, "hostID"), chi.URLParam(r, "eventID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cache.CachedEvent{
		ID:                ev.ID,
		Name:              ev.Name,
		Description:       ev.Description,
		DurationInMinutes: ev.DurationInMinutes,
	})
}

// handleSlots returns valid start times. The optional timezone query
// parameter only changes how instants are rendered.
func (a *API) handleSlots(w http.ResponseWriter, r *http.Request) {
	hostID := chi.URLParam(r, "hostID")
	eventID := chi.URLParam(r, "eventID")

	viewer := time.UTC
	if tz := r.URL.Query().Get("timezone"); tz != "" {
		loc, err := availability.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_timezone")
			return
		}
		viewer = loc
	}

	ev, err := a.bookings.GetEvent(r.Context(), hostID, eventID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	valid, err := a.bookings.ValidTimes(r.Context(), hostID, eventID, a.now().UTC())
	if isStoredDataError(err) {
		a.logger.Error().Err(err).Str("host_id", hostID).Msg("stored schedule is invalid")
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	slots := make([]time.Time, len(valid))
	for i, t := range valid {
		slots[i] = t.In(viewer)
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		Event: cache.CachedEvent{
			ID:                ev.ID,
			Name:              ev.Name,
			Description:       ev.Description,
			DurationInMinutes: ev.DurationInMinutes,
		},
		Timezone: viewer.String(),
		Slots:    slots,
	})
}
