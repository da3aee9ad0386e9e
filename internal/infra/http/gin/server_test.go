package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/registry"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/config"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/obs"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/storage/memory"
)

var today = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	cleaning := int64(300000)
	villa, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "villa-1", Host: "host-villa", Title: "Ella hideaway", Vertical: pricing.VerticalStay, MinNights: 2,
		Stay: &pricing.StayRates{Currency: "LKR", PricePerNight: 2500000, CleaningFee: &cleaning},
		Now:  today,
	})
	require.NoError(t, err)
	car, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "car-1", Host: "host-car", Title: "Toyota Aqua", Vertical: pricing.VerticalVehicle,
		Vehicle: &pricing.VehicleRates{Currency: "LKR", PricePerDay: 500000},
		Now:     today,
	})
	require.NoError(t, err)
	require.NoError(t, villa.Activate(today))
	require.NoError(t, car.Activate(today))

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, villa))
	require.NoError(t, unit.Listings().Save(ctx, car))
	require.NoError(t, unit.Commit(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	buses := registry.Build(registry.Deps{
		UoW:         store,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Locker:      memory.NewLocker(),
		Logger:      logger,
		Now:         func() time.Time { return today },
	})
	router := NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:      BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Availability: AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Quotes:       QuoteHandler{Queries: buses.Queries, Logger: logger},
	})
	return &testServer{router: router, store: store}
}

type caller struct {
	id   string
	role access.Role
}

var (
	anonymous = caller{}
	guest1    = caller{"guest-1", access.RoleGuest}
	guest2    = caller{"guest-2", access.RoleGuest}
	villaHost = caller{"host-villa", access.RolePartner}
)

func (s *testServer) do(t *testing.T, who caller, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if who.id != "" {
		req.Header.Set(HeaderUserID, who.id)
		req.Header.Set(HeaderUserRole, string(who.role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) bookVilla(t *testing.T, who caller, start, end string) string {
	t.Helper()
	rec := s.do(t, who, http.MethodPost, "/api/v1/bookings", gin.H{"listing_id": "villa-1", "start": start, "end": end, "guests": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode(t, rec)["booking"].(map[string]any)
	return booking["id"].(string)
}

func TestStayQuoteIsPublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, anonymous, http.MethodPost, "/api/v1/quotes/stay", gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-13"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.EqualValues(t, 3, body["units"])
	price := body["price"].(map[string]any)
	total := price["total"].(map[string]any)
	assert.EqualValues(t, 7800000, total["amount"])
	assert.Equal(t, "LKR", total["currency"])
}

func TestVehicleQuoteOnStayListing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, anonymous, http.MethodPost, "/api/v1/quotes/vehicle", gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-13"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "wrong_vertical", decode(t, rec)["code"])
}

func TestQuoteRequestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{"missing start", gin.H{"listing_id": "villa-1", "end": "2024-01-13"}, http.StatusBadRequest, "invalid_request"},
		{"garbled date", gin.H{"listing_id": "villa-1", "start": "10/01/2024", "end": "2024-01-13"}, http.StatusBadRequest, "invalid_request"},
		{"inverted", gin.H{"listing_id": "villa-1", "start": "2024-01-13", "end": "2024-01-10"}, http.StatusBadRequest, "invalid_range"},
		{"unknown listing", gin.H{"listing_id": "nope", "start": "2024-01-10", "end": "2024-01-13"}, http.StatusNotFound, "listing_not_found"},
		{"below min nights", gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-11"}, http.StatusUnprocessableEntity, "duration_too_short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, anonymous, http.MethodPost, "/api/v1/quotes/stay", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode(t, rec)["code"])
		})
	}

	rec := s.do(t, anonymous, http.MethodPost, "/api/v1/quotes/stay", gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-11"})
	limit := decode(t, rec)["limit"].(map[string]any)
	assert.Equal(t, "nights", limit["unit"])
	assert.EqualValues(t, 2, limit["limit"])
	assert.EqualValues(t, 1, limit["actual"])
}

func TestCreateBookingRequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, anonymous, http.MethodPost, "/api/v1/bookings", gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-13"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	req.Header.Set(HeaderUserID, "guest-1")
	req.Header.Set(HeaderUserRole, "pirate")
	bad := httptest.NewRecorder()
	s.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestPendingStayBlocksOverlap(t *testing.T) {
	s := newTestServer(t)
	id := s.bookVilla(t, guest1, "2024-01-10", "2024-01-13")
	assert.NotEmpty(t, id)

	rec := s.do(t, anonymous, http.MethodGet, "/api/v1/listings/villa-1/availability?start=2024-01-12&end=2024-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, false, body["available"])
	assert.Len(t, body["blocked"], 1)

	rec = s.do(t, guest2, http.MethodPost, "/api/v1/bookings", gin.H{"listing_id": "villa-1", "start": "2024-01-12", "end": "2024-01-15"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode(t, rec)
	assert.Equal(t, "unavailable", conflict["code"])
	assert.NotContains(t, conflict["error"], id, "other bookings are not disclosed")

	// Checkout day is free for the next check-in.
	s.bookVilla(t, guest2, "2024-01-13", "2024-01-15")
}

func TestCreateBookingIdempotent(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-13"}

	first := s.do(t, guest1, http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := s.do(t, guest1, http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	a := decode(t, first)["booking"].(map[string]any)
	b := decode(t, second)["booking"].(map[string]any)
	assert.Equal(t, a["id"], b["id"])
	assert.Len(t, s.store.Pending(), 1)
}

func TestIdempotencyKeyIsPerCaller(t *testing.T) {
	s := newTestServer(t)

	first := s.do(t, guest1, http.MethodPost, "/api/v1/bookings",
		gin.H{"listing_id": "villa-1", "start": "2024-01-10", "end": "2024-01-13"}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := s.do(t, guest2, http.MethodPost, "/api/v1/bookings",
		gin.H{"listing_id": "car-1", "start": "2024-02-10", "end": "2024-02-13"}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	a := decode(t, first)["booking"].(map[string]any)
	b := decode(t, second)["booking"].(map[string]any)
	assert.NotEqual(t, a["id"], b["id"])
	assert.Equal(t, "guest-2", b["guest_id"])
	assert.Equal(t, "car-1", b["listing_id"])
	assert.Len(t, s.store.Pending(), 2)
}

func TestBookingTimesUseCallerCalendarDays(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, anonymous, http.MethodPost, "/api/v1/quotes/stay",
		gin.H{"listing_id": "villa-1", "start": "2024-01-10T02:00:00+05:30", "end": "2024-01-12T23:00:00+05:30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode(t, rec)
	assert.EqualValues(t, 2, quote["units"])
	assert.Equal(t, "2024-01-10T00:00:00Z", quote["start"])

	s.bookVilla(t, guest1, "2024-01-10T14:00:00+05:30", "2024-01-15T11:00:00+05:30")
	// Next guest checks in an hour before the first one leaves.
	s.bookVilla(t, guest2, "2024-01-15T10:00:00+05:30", "2024-01-18")

	rec = s.do(t, guest2, http.MethodPost, "/api/v1/bookings",
		gin.H{"listing_id": "villa-1", "start": "2024-01-14T20:00:00Z", "end": "2024-01-16T09:00:00Z"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.bookVilla(t, guest1, "2024-01-10", "2024-01-13")
	path := "/api/v1/bookings/" + id

	rec := s.do(t, guest1, http.MethodPost, path+"/status", gin.H{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "guests cannot confirm")

	rec = s.do(t, villaHost, http.MethodPost, path+"/status", gin.H{"status": "CONFIRMED", "reason": "welcome"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirmed := decode(t, rec)
	assert.Equal(t, "CONFIRMED", confirmed["status"])
	assert.Equal(t, []any{"ACTIVE", "CANCELLED"}, confirmed["allowed_transitions"])

	rec = s.do(t, villaHost, http.MethodPost, path+"/status", gin.H{"status": "REJECTED"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_transition", decode(t, rec)["code"])

	rec = s.do(t, villaHost, http.MethodPost, path+"/status", gin.H{"status": "PAID"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, guest1, http.MethodPost, path+"/status", gin.H{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", decode(t, rec)["status"])

	rec = s.do(t, anonymous, http.MethodGet, "/api/v1/listings/villa-1/availability?start=2024-01-10&end=2024-01-13", nil)
	assert.Equal(t, true, decode(t, rec)["available"])
}

func TestGetBooking(t *testing.T) {
	s := newTestServer(t)
	id := s.bookVilla(t, guest1, "2024-01-10", "2024-01-13")

	rec := s.do(t, guest1, http.MethodGet, "/api/v1/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["id"])

	rec = s.do(t, villaHost, http.MethodGet, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, guest2, http.MethodGet, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, guest1, http.MethodGet, "/api/v1/bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, anonymous, http.MethodGet, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, anonymous, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, anonymous, http.MethodGet, "/readyz", nil).Code)
}

func TestClassify(t *testing.T) {
	status, code := classify(context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)

	status, _ = classify(access.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, status)
}
