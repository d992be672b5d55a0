/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/friendsincode/slotwise/internal/audit"
	"github.com/friendsincode/slotwise/internal/auth"
	"github.com/friendsincode/slotwise/internal/models"
)

// AuditLog lists a host's recorded changes.
type AuditLog interface {
	Query(ctx context.Context, filters audit.QueryFilters) ([]models.AuditLog, int64, error)
}

// SetAuditLog enables GET /api/v1/audit. Call before Routes.
func (a *API) SetAuditLog(log AuditLog) {
	a.audit = log
}

func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	filters := audit.QueryFilters{HostID: auth.HostID(r.Context())}

	if v := r.URL.Query().Get("action"); v != "" {
		action := models.AuditAction(v)
		filters.Action = &action
	}
	for key, dest := range map[string]*int{"limit": &filters.Limit, "offset": &filters.Offset} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_"+key)
			return
		}
		*dest = n
	}
	if filters.Limit > 500 {
		filters.Limit = 500
	}

	logs, total, err := a.audit.Query(r.Context(), filters)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": logs,
		"total":   total,
	})
}
