package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbliss/internal/email"
	"bookbliss/internal/types"
)

type stubScheduleLister struct {
	records []types.ScheduleRecord
}

func (s *stubScheduleLister) Active() []types.ScheduleRecord { return s.records }

func newAdminRouter(lister ScheduleLister, log *email.SendLog) chi.Router {
	h := NewAdminHandler(lister, log, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func adminGet(t *testing.T, r chi.Router, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp.Data
}

func TestAdminHandler_ListSchedules(t *testing.T) {
	lister := &stubScheduleLister{records: []types.ScheduleRecord{
		{OrderID: "order-1", Recipient: "a***@example.com", Status: types.StatusConfirmed, UpdateCount: 2},
		{OrderID: "order-2", Recipient: "b***@example.com", Status: types.StatusShipped, UpdateCount: 5},
	}}
	r := newAdminRouter(lister, email.NewSendLog(email.SendLogConfig{}))

	rec, data := adminGet(t, r, "/schedules")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, data["count"])
	schedules := data["schedules"].([]any)
	require.Len(t, schedules, 2)
	first := schedules[0].(map[string]any)
	assert.Equal(t, "order-1", first["order_id"])
}

func TestAdminHandler_ListSchedules_Empty(t *testing.T) {
	r := newAdminRouter(&stubScheduleLister{}, email.NewSendLog(email.SendLogConfig{}))

	rec, data := adminGet(t, r, "/schedules")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, data["count"])
}

func TestAdminHandler_EmailLog(t *testing.T) {
	log := email.NewSendLog(email.SendLogConfig{})
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	log.Append(email.LogEntry{MessageID: "msg-1", Status: email.LogStatusDelivered, Timestamp: now})
	log.Append(email.LogEntry{MessageID: "msg-2", Status: email.LogStatusFailed, Error: "mailbox full", Timestamp: now})
	r := newAdminRouter(&stubScheduleLister{}, log)

	rec, data := adminGet(t, r, "/email-log")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, data["count"])
	entries := data["entries"].([]any)
	newest := entries[0].(map[string]any)
	assert.Equal(t, "msg-2", newest["message_id"])
}

func TestAdminHandler_EmailLog_FailedFilter(t *testing.T) {
	log := email.NewSendLog(email.SendLogConfig{})
	log.Append(email.LogEntry{MessageID: "msg-1", Status: email.LogStatusDelivered})
	log.Append(email.LogEntry{MessageID: "msg-2", Status: email.LogStatusFailed})
	r := newAdminRouter(&stubScheduleLister{}, log)

	rec, data := adminGet(t, r, "/email-log?failed=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, data["count"])
	entries := data["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "msg-2", entries[0].(map[string]any)["message_id"])
}

func TestAdminHandler_EmailLog_EmptyIsList(t *testing.T) {
	r := newAdminRouter(&stubScheduleLister{}, email.NewSendLog(email.SendLogConfig{}))

	rec, data := adminGet(t, r, "/email-log?failed=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	entries, ok := data["entries"].([]any)
	require.True(t, ok, "entries must serialize as a JSON array, not null")
	assert.Empty(t, entries)
}

func TestAdminHandler_EmailLogStats(t *testing.T) {
	log := email.NewSendLog(email.SendLogConfig{})
	log.Append(email.LogEntry{MessageID: "msg-1", Status: email.LogStatusDelivered})
	log.Append(email.LogEntry{MessageID: "msg-2", Status: email.LogStatusDelivered})
	log.Append(email.LogEntry{MessageID: "msg-3", Status: email.LogStatusFailed})
	r := newAdminRouter(&stubScheduleLister{}, log)

	rec, data := adminGet(t, r, "/email-log/stats")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, data["total"])
	assert.EqualValues(t, 2, data["delivered"])
	assert.EqualValues(t, 1, data["failed"])
	assert.InDelta(t, 2.0/3.0, data["success_rate"].(float64), 0.001)
}
