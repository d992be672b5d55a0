/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/slotwise/internal/auth"
	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/booking"
)

type scheduleRequest struct {
	Timezone       string                            `json:"timezone" validate:"required"`
	Availabilities []availability.WeeklyAvailability `json:"availabilities" validate:"dive"`
}

func (a *API) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	sched, err := a.schedules.Get(r.Context(), auth.HostID(r.Context()))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "schedule_not_found")
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (a *API) handleScheduleSave(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	sched, err := a.schedules.Save(r.Context(), auth.HostID(r.Context()), req.Timezone, req.Availabilities)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (a *API) handleEventsList(w http.ResponseWriter, r *http.Request) {
	list, err := a.bookings.ListEvents(r.Context(), auth.HostID(r.Context()))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleEventsGet(w http.ResponseWriter, r *http.Request) {
	ev, err := a.bookings.GetOwnEvent(r.Context(), auth.HostID(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) handleEventsCreate(w http.ResponseWriter, r *http.Request) {
	var req booking.EventInput
	if !a.decodeJSON(w, r, &req) {
		return
	}
	ev, err := a.bookings.CreateEvent(r.Context(), auth.HostID(r.Context()), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (a *API) handleEventsUpdate(w http.ResponseWriter, r *http.Request) {
	var req booking.EventInput
	if !a.decodeJSON(w, r, &req) {
		return
	}
	ev, err := a.bookings.UpdateEvent(r.Context(), auth.HostID(r.Context()), chi.URLParam(r, "eventID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) handleEventsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.bookings.DeleteEvent(r.Context(), auth.HostID(r.Context()), chi.URLParam(r, "eventID")); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
