package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/store"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/web"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	e := allocation.NewEngine(m, nil)
	s := &web.Server{
		Tables: allocation.NewTableDesk(e, m),
		Halls:  allocation.NewHallDesk(e, m),
		Shifts: allocation.NewShiftDesk(e, m),
		Store:  m,
	}
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, m
}

func addTable(t *testing.T, m *store.Memory, capacity int) booking.Resource {
	t.Helper()
	r := booking.Resource{Kind: booking.KindTable, Name: "t1", Capacity: capacity, Active: true}
	require.NoError(t, m.CreateResource(context.Background(), &r))
	return r
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func slot(h int) time.Time {
	return time.Date(2026, time.September, 12, h, 0, 0, 0, time.UTC)
}

func reservationBody(resourceID int64, from, to int, quantity int) map[string]any {
	return map[string]any{
		"resource_id": resourceID,
		"start":       slot(from).Format(time.RFC3339),
		"end":         slot(to).Format(time.RFC3339),
		"quantity":    quantity,
	}
}

func TestCreateReservation(t *testing.T) {
	ts, m := newTestServer(t)
	table := addTable(t, m, 4)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 18, 20, 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "table", body["resource_kind"])
	assert.NotZero(t, body["id"])
}

func TestCreateConflictCarriesBlocker(t *testing.T) {
	ts, m := newTestServer(t)
	table := addTable(t, m, 4)

	resp, first := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 18, 20, 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 19, 21, 2))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict, ok := body["conflict"].(map[string]any)
	require.True(t, ok, "conflict payload missing: %v", body)
	assert.Equal(t, first["id"], conflict["booking_id"])
}

func TestValidationErrorsAre422(t *testing.T) {
	ts, m := newTestServer(t)
	table := addTable(t, m, 4)

	// party too big
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 18, 20, 9))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// end before start
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 20, 18, 2))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnknownResourceIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(99, 18, 20, 2))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApprovalFlow(t *testing.T) {
	ts, m := newTestServer(t)
	table := addTable(t, m, 4)

	_, created := doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 18, 20, 2))
	id := int64(created["id"].(float64))

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/tables/reservations/%d/approve", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "APPROVED", body["status"])

	// second approve is an illegal transition
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/tables/reservations/%d/approve", ts.URL, id), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/tables/reservations/%d/complete", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", body["status"])
}

func TestAssignmentsOverHTTP(t *testing.T) {
	ts, m := newTestServer(t)
	hall := booking.Resource{Kind: booking.KindHall, Name: "ballroom", Capacity: 200, Active: true}
	require.NoError(t, m.CreateResource(context.Background(), &hall))

	_, created := doJSON(t, http.MethodPost, ts.URL+"/api/v1/halls/bookings", reservationBody(hall.ID, 12, 18, 120))
	id := int64(created["id"].(float64))

	// assignment before approval is rejected
	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/halls/bookings/%d/assignments", ts.URL, id),
		map[string]string{"kind": "equipment", "detail": "projector"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/halls/bookings/%d/approve", ts.URL, id), nil)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/halls/bookings/%d/assignments", ts.URL, id),
		map[string]string{"kind": "equipment", "detail": "projector"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "REQUESTED", body["status"])
}

func TestAvailabilityEndpoint(t *testing.T) {
	ts, m := newTestServer(t)
	table := addTable(t, m, 4)

	doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(table.ID, 18, 20, 2))

	url := fmt.Sprintf("%s/api/v1/tables/availability?resource_id=%d&start=%s&end=%s",
		ts.URL, table.ID, slot(19).Format(time.RFC3339), slot(21).Format(time.RFC3339))
	resp, body := doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["available"])

	url = fmt.Sprintf("%s/api/v1/tables/availability?resource_id=%d&start=%s&end=%s",
		ts.URL, table.ID, slot(20).Format(time.RFC3339), slot(22).Format(time.RFC3339))
	resp, body = doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["available"])
}

func TestCrossDeskIDsAre404(t *testing.T) {
	ts, m := newTestServer(t)
	hall := booking.Resource{Kind: booking.KindHall, Name: "ballroom", Capacity: 200, Active: true}
	require.NoError(t, m.CreateResource(context.Background(), &hall))

	_, created := doJSON(t, http.MethodPost, ts.URL+"/api/v1/halls/bookings", reservationBody(hall.ID, 12, 18, 50))
	id := int64(created["id"].(float64))

	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/tables/reservations/%d", ts.URL, id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResourceLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/resources",
		map[string]any{"kind": "table", "name": "patio 2-top", "capacity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(body["id"].(float64))
	assert.Equal(t, true, body["active"])

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/resources/table/%d/deactivate", ts.URL, id), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// bookings against a deactivated resource are refused
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/tables/reservations", reservationBody(id, 18, 20, 2))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}
