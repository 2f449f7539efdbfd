package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubContext struct {
	err error
}

func (s stubContext) Get(ctx context.Context, hotelID string) (models.OpsContextView, error) {
	if s.err != nil {
		return models.OpsContextView{}, s.err
	}
	return models.OpsContextView{HotelID: hotelID, Degraded: []string{"weather"}}, nil
}

func (s stubContext) Advisories(ctx context.Context, hotelID string) (service.AdvisoryView, error) {
	return service.AdvisoryView{HotelID: hotelID}, s.err
}

type stubForecasts struct {
	gotDays int
}

func (s *stubForecasts) Generate(ctx context.Context, hotelID string, daysAhead int) (models.PricingForecastResult, error) {
	s.gotDays = daysAhead
	return models.PricingForecastResult{HotelID: hotelID, GeneratedAtUTC: time.Now().UTC()}, nil
}

type stubSnapshots struct {
	res models.ResolvedForecast
	err error
}

func (s stubSnapshots) Resolve(ctx context.Context, hotelID string) (models.ResolvedForecast, error) {
	return s.res, s.err
}

type stubTickets struct {
	res service.TicketResult
	err error
	got service.PricingActionInput
}

func (s *stubTickets) CreateFromAdvisory(ctx context.Context, in service.AdvisoryTicketInput) (service.TicketResult, error) {
	return s.res, s.err
}

func (s *stubTickets) CreateFromPricingAction(ctx context.Context, in service.PricingActionInput) (service.TicketResult, error) {
	s.got = in
	return s.res, s.err
}

type stubLocator struct {
	err error
}

func (s stubLocator) Refresh(ctx context.Context, hotelID string) (models.HotelLocation, error) {
	if s.err != nil {
		return models.HotelLocation{}, s.err
	}
	lat, lon := 38.7, -9.1
	return models.HotelLocation{ID: hotelID, Lat: &lat, Lon: &lon}, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	h.Logger = zerolog.Nop()
	r := gin.New()
	r.GET("/api/hotels/:hotelId/operations-context", h.OperationsContext)
	r.GET("/api/hotels/:hotelId/advisories", h.Advisories)
	r.GET("/api/hotels/:hotelId/pricing/forecast", h.PricingForecast)
	r.GET("/api/hotels/:hotelId/pricing/snapshot", h.PricingSnapshot)
	r.POST("/api/advisory/create-ticket", h.CreateAdvisoryTicket)
	r.POST("/api/pricing-action/create-ticket", h.CreatePricingTicket)
	r.POST("/api/admin/hotels/:hotelId/geocode", h.GeocodeHotel)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestOperationsContext(t *testing.T) {
	r := newTestRouter(&Handler{Context: stubContext{}})
	w := do(r, http.MethodGet, "/api/hotels/h1/operations-context", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var view models.OpsContextView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.HotelID != "h1" || len(view.Degraded) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestOperationsContextValidation(t *testing.T) {
	r := newTestRouter(&Handler{Context: stubContext{err: apierr.Validation("hotelId", "is required")}})
	w := do(r, http.MethodGet, "/api/hotels/h1/operations-context", nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("expected 400 VALIDATION_ERROR, got %d %s", w.Code, w.Body.String())
	}
}

func TestPricingForecastDays(t *testing.T) {
	forecasts := &stubForecasts{}
	r := newTestRouter(&Handler{Forecasts: forecasts, ForecastDays: 30, MaxDays: 365})

	if w := do(r, http.MethodGet, "/api/hotels/h1/pricing/forecast", nil); w.Code != http.StatusOK || forecasts.gotDays != 30 {
		t.Fatalf("expected default of 30 days, got %d (%d)", forecasts.gotDays, w.Code)
	}
	if w := do(r, http.MethodGet, "/api/hotels/h1/pricing/forecast?days=14", nil); w.Code != http.StatusOK || forecasts.gotDays != 14 {
		t.Fatalf("expected 14 days, got %d (%d)", forecasts.gotDays, w.Code)
	}
	for _, bad := range []string{"0", "-3", "abc", "400"} {
		w := do(r, http.MethodGet, "/api/hotels/h1/pricing/forecast?days="+bad, nil)
		if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
			t.Fatalf("days=%s: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestPricingSnapshotServesUnpersistedForecast(t *testing.T) {
	forecast := models.PricingForecastResult{HotelID: "h1"}
	r := newTestRouter(&Handler{Snapshots: stubSnapshots{
		res: models.ResolvedForecast{Mode: models.ForecastModeLiveFallback, Forecast: &forecast},
		err: apierr.Persistence("failed to persist pricing snapshot", errors.New("disk full")),
	}})
	w := do(r, http.MethodGet, "/api/hotels/h1/pricing/snapshot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Snapshot-Persisted") != "false" {
		t.Fatalf("expected persistence header")
	}
}

func TestCreateTicketStatusCodes(t *testing.T) {
	tickets := &stubTickets{res: service.TicketResult{
		TicketID:   "t1",
		Department: models.DepartmentRevenue,
		Priority:   models.TicketPriorityHigh,
		SourceKey:  "PRICING:2026-03-14:12",
	}}
	r := newTestRouter(&Handler{Tickets: tickets})

	payload := map[string]any{"hotel_id": "h1", "night_date": "2026-03-14", "action": "Raise rate", "suggested_adjustment_pct": 12}
	w := do(r, http.MethodPost, "/api/pricing-action/create-ticket", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if tickets.got.SuggestedAdjustmentPct != 12 || tickets.got.NightDate != "2026-03-14" {
		t.Fatalf("payload not bound: %+v", tickets.got)
	}
	var resp TicketResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TicketID != "t1" || resp.Department != "REVENUE" || resp.Deduped {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.SourceKey != "PRICING:2026-03-14:12" || resp.AdvisoryID != "" {
		t.Fatalf("expected source key only, got %+v", resp)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("advisory_id")) {
		t.Fatalf("expected advisory_id to be omitted, got %s", w.Body.String())
	}

	tickets.res.Deduped = true
	if w := do(r, http.MethodPost, "/api/pricing-action/create-ticket", payload); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on dedup, got %d", w.Code)
	}

	tickets.err = apierr.Persistence("failed to create ticket", errors.New("tx aborted"))
	if w := do(r, http.MethodPost, "/api/advisory/create-ticket", map[string]any{"hotel_id": "h1"}); w.Code != http.StatusInternalServerError || errorCode(t, w) != "PERSISTENCE_ERROR" {
		t.Fatalf("expected 500 PERSISTENCE_ERROR, got %d", w.Code)
	}

	if w := do(r, http.MethodPost, "/api/advisory/create-ticket", "{not json"); w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_REQUEST" {
		t.Fatalf("expected 400 INVALID_REQUEST, got %d", w.Code)
	}
}

func TestGeocodeHotel(t *testing.T) {
	r := newTestRouter(&Handler{Locator: stubLocator{}})
	if w := do(r, http.MethodPost, "/api/admin/hotels/h1/geocode", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r = newTestRouter(&Handler{Locator: stubLocator{err: apierr.NotFound("hotel h1 not found")}})
	if w := do(r, http.MethodPost, "/api/admin/hotels/h1/geocode", nil); w.Code != http.StatusNotFound || errorCode(t, w) != "NOT_FOUND" {
		t.Fatalf("expected 404 NOT_FOUND, got %d", w.Code)
	}

	r = newTestRouter(&Handler{Locator: stubLocator{err: apierr.Dependency("geocoder", errors.New("nominatim http error: 500"))}})
	if w := do(r, http.MethodPost, "/api/admin/hotels/h1/geocode", nil); w.Code != http.StatusServiceUnavailable || errorCode(t, w) != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("expected 503 DEPENDENCY_UNAVAILABLE, got %d", w.Code)
	}
}

func TestCreateAdvisoryTicketReturnsAdvisoryID(t *testing.T) {
	tickets := &stubTickets{res: service.TicketResult{TicketID: "t2", Department: models.DepartmentSecurity, AdvisoryID: "adv_00000000000000ff"}}
	r := newTestRouter(&Handler{Tickets: tickets})

	w := do(r, http.MethodPost, "/api/advisory/create-ticket", map[string]any{"hotel_id": "h1", "title": "Secure outdoor furniture", "priority": "high"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var resp TicketResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AdvisoryID != "adv_00000000000000ff" || resp.SourceKey != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
