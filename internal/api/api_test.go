package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/slotwise/internal/audit"
	"github.com/friendsincode/slotwise/internal/auth"
	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/booking"
	"github.com/friendsincode/slotwise/internal/busy"
	"github.com/friendsincode/slotwise/internal/db"
	"github.com/friendsincode/slotwise/internal/events"
	"github.com/friendsincode/slotwise/internal/models"
	"github.com/friendsincode/slotwise/internal/schedule"
)

var testSecret = []byte("test-secret")

type failingSource struct{}

func (failingSource) BusyIntervals(context.Context, string, time.Time, time.Time) ([]availability.Interval, error) {
	return nil, errors.New("calendar down")
}

type testEnv struct {
	router   http.Handler
	bookings *booking.Service
	store    *schedule.Store
	db       *gorm.DB
}

func newTestEnv(t *testing.T, source busy.Source) *testEnv {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := schedule.NewStore(database, nil, nil, zerolog.Nop())
	bookings := booking.NewService(database, store, source,
		availability.NewResolver(1, zerolog.Nop()),
		booking.Options{SlotStep: 15 * time.Minute}, zerolog.Nop())

	a := New(bookings, store, testSecret, 0, zerolog.Nop())
	// Sunday evening UTC so the next Monday is a few hours away.
	a.now = func() time.Time { return time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	a.Routes(r)
	return &testEnv{router: r, bookings: bookings, store: store, db: database}
}

func (e *testEnv) do(t *testing.T, method, path, hostID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if hostID != "" {
		token, err := auth.Issue(testSecret, auth.Claims{HostID: hostID}, time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	rr := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHostRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	for _, path := range []string{"/api/v1/schedule", "/api/v1/events"} {
		rr := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})

	rr := env.do(t, http.MethodGet, "/api/v1/schedule", "h1", "")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "schedule_not_found" {
		t.Fatalf("expected schedule_not_found, got %d %s", rr.Code, rr.Body.String())
	}

	body := `{"timezone":"America/New_York","availabilities":[
		{"day_of_week":"tuesday","start_time":"13:00","end_time":"15:00"},
		{"day_of_week":"monday","start_time":"9:00","end_time":"12:00"}]}`
	rr = env.do(t, http.MethodPut, "/api/v1/schedule", "h1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/schedule", "h1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	got := decode[availability.Schedule](t, rr)
	if got.Timezone != "America/New_York" || len(got.Availabilities) != 2 {
		t.Fatalf("unexpected schedule: %+v", got)
	}
	if got.Availabilities[0].Day != availability.Monday || got.Availabilities[0].Start != "09:00" {
		t.Fatalf("entries not sorted/normalized: %+v", got.Availabilities)
	}
}

func TestScheduleSaveErrors(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, "invalid_json"},
		{"unknown field", `{"timezone":"UTC","extra":1}`, http.StatusBadRequest, "invalid_json"},
		{"missing timezone", `{"availabilities":[]}`, http.StatusBadRequest, "validation_failed"},
		{"missing start", `{"timezone":"UTC","availabilities":[{"day_of_week":"monday","end_time":"10:00"}]}`, http.StatusBadRequest, "validation_failed"},
		{"unknown timezone", `{"timezone":"Mars/Base","availabilities":[]}`, http.StatusUnprocessableEntity, "unknown_timezone"},
		{"unknown day", `{"timezone":"UTC","availabilities":[{"day_of_week":"funday","start_time":"09:00","end_time":"10:00"}]}`, http.StatusUnprocessableEntity, "unknown_weekday"},
		{"malformed time", `{"timezone":"UTC","availabilities":[{"day_of_week":"monday","start_time":"9","end_time":"10:00"}]}`, http.StatusUnprocessableEntity, "malformed_time"},
		{"inverted window", `{"timezone":"UTC","availabilities":[{"day_of_week":"monday","start_time":"11:00","end_time":"10:00"}]}`, http.StatusUnprocessableEntity, "invalid_window"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPut, "/api/v1/schedule", "h1", tc.body)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tc.status, rr.Body.String())
			}
			if got := errorCode(t, rr); got != tc.code {
				t.Fatalf("error = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestEventsCRUD(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})

	rr := env.do(t, http.MethodPost, "/api/v1/events", "h1", `{"name":"Intro","duration_in_minutes":30,"is_active":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("missing id in %v", created)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/events", "h1", `{"name":"Bad","duration_in_minutes":0}`)
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "validation_failed" {
		t.Fatalf("expected validation_failed, got %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPut, "/api/v1/events/"+id, "h2", `{"name":"Stolen","duration_in_minutes":30}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("other host update: expected 404, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/api/v1/events/"+id, "h1", `{"name":"Intro call","duration_in_minutes":45,"is_active":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/events", "h1", "")
	list := decode[[]map[string]any](t, rr)
	if len(list) != 1 || list[0]["name"] != "Intro call" {
		t.Fatalf("unexpected list: %v", list)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/book/h1/events", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("public list: expected 200, got %d", rr.Code)
	}
	public := decode[[]map[string]any](t, rr)
	if len(public) != 1 || public[0]["duration_in_minutes"] != float64(45) {
		t.Fatalf("unexpected public list: %v", public)
	}

	rr = env.do(t, http.MethodDelete, "/api/v1/events/"+id, "h1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/v1/events/"+id, "h1", "")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "event_not_found" {
		t.Fatalf("expected event_not_found, got %d %s", rr.Code, rr.Body.String())
	}
}

func seedBookable(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()
	if _, err := env.store.Save(ctx, "h1", "UTC", []availability.WeeklyAvailability{
		{Day: availability.Monday, Start: "09:00", End: "10:00"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ev, err := env.bookings.CreateEvent(ctx, "h1", booking.EventInput{Name: "Chat", DurationInMinutes: 30, IsActive: true})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return ev.ID
}

func TestSlots(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	id := seedBookable(t, env)

	rr := env.do(t, http.MethodGet, "/api/v1/book/h1/events/"+id+"/slots?timezone=Asia/Tokyo", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Timezone string      `json:"timezone"`
		Slots    []time.Time `json:"slots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Timezone != "Asia/Tokyo" {
		t.Fatalf("timezone = %q", resp.Timezone)
	}
	want := []time.Time{
		time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 9, 15, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC),
	}
	if len(resp.Slots) < len(want) {
		t.Fatalf("got %d slots", len(resp.Slots))
	}
	for i := range want {
		if !resp.Slots[i].Equal(want[i]) {
			t.Fatalf("slot[%d] = %v, want %v", i, resp.Slots[i], want[i])
		}
	}
	if _, offset := resp.Slots[0].Zone(); offset != 9*3600 {
		t.Fatalf("slot rendered with offset %d, want +09:00", offset)
	}
}

func TestSlotsErrors(t *testing.T) {
	env := newTestEnv(t, failingSource{})
	id := seedBookable(t, env)

	rr := env.do(t, http.MethodGet, "/api/v1/book/h1/events/"+id+"/slots", "", "")
	if rr.Code != http.StatusServiceUnavailable || errorCode(t, rr) != "calendar_unavailable" {
		t.Fatalf("expected calendar_unavailable, got %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/book/h1/events/missing/slots", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/book/h1/events/"+id+"/slots?timezone=Nowhere/Land", "", "")
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "unknown_timezone" {
		t.Fatalf("expected unknown_timezone, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestSlotsCorruptStoredScheduleIsInternal(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  string
	}{
		{"weekday", "day_of_week", "funday"},
		{"time", "start_time", "9am"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, &busy.StaticSource{})
			id := seedBookable(t, env)
			if err := env.db.Model(&models.ScheduleAvailability{}).
				Where("1 = 1").Update(tc.column, tc.value).Error; err != nil {
				t.Fatalf("corrupt row: %v", err)
			}

			rr := env.do(t, http.MethodGet, "/api/v1/book/h1/events/"+id+"/slots", "", "")
			if rr.Code != http.StatusInternalServerError || errorCode(t, rr) != "internal_error" {
				t.Fatalf("expected internal_error, got %d %s", rr.Code, rr.Body.String())
			}
		})
	}

	env := newTestEnv(t, &busy.StaticSource{})
	id := seedBookable(t, env)
	if err := env.db.Model(&models.Schedule{}).Where("host_id = ?", "h1").
		Update("timezone", "Nowhere/Land").Error; err != nil {
		t.Fatalf("corrupt schedule: %v", err)
	}
	rr := env.do(t, http.MethodGet, "/api/v1/book/h1/events/"+id+"/slots", "", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for stored timezone, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestPublicRateLimit(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := database.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := schedule.NewStore(database, nil, nil, zerolog.Nop())
	bookings := booking.NewService(database, store, &busy.StaticSource{},
		availability.NewResolver(1, zerolog.Nop()), booking.Options{}, zerolog.Nop())
	r := chi.NewRouter()
	New(bookings, store, testSecret, 2, zerolog.Nop()).Routes(r)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/book/h1/events", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}
}

func TestAuditListScopedToHost(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	svc := audit.NewService(env.db, events.NewBus(), zerolog.Nop())
	ctx := context.Background()
	for _, hostID := range []string{"h1", "h1", "h2"} {
		if err := svc.Log(ctx, &models.AuditLog{HostID: hostID, Action: models.AuditActionEventCreate}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	a := New(env.bookings, env.store, testSecret, 0, zerolog.Nop())
	a.SetAuditLog(svc)
	r := chi.NewRouter()
	a.Routes(r)
	env.router = r

	rec := env.do(t, http.MethodGet, "/api/v1/audit?limit=10", "h1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Entries []models.AuditLog `json:"entries"`
		Total   int64             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || len(body.Entries) != 2 {
		t.Fatalf("total=%d entries=%d, want 2", body.Total, len(body.Entries))
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/audit?limit=-1", "h1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/audit", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
}

func TestAuditRouteAbsentWithoutLog(t *testing.T) {
	env := newTestEnv(t, &busy.StaticSource{})
	if rec := env.do(t, http.MethodGet, "/api/v1/audit", "h1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
