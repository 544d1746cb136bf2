package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/catalog"
)

func newTestRouter(t *testing.T) (*gin.Engine, *calendar.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.NewMemCatalog()
	cat.AddService(catalog.Service{ID: 1, Code: "HAIRCUT", Name: "Haircut", DurationMin: 30, PriceCents: 2500})
	cat.AddStaff(catalog.Staff{ID: 1, Name: "Alex"}, 1)

	store := calendar.NewMemStore()
	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	store.AddBlock(1, day, day.Add(calendar.Granularity))
	store.AddBlock(1, day.Add(calendar.Granularity), day.Add(2*calendar.Granularity))

	engine := booking.NewEngine(cat, store, zap.NewNop(), time.Second)
	engine.Now = func() time.Time { return day.Add(-time.Hour) }

	a := &App{Engine: engine, Catalog: cat, Store: store, Log: zap.NewNop()}
	router := gin.New()
	api := router.Group("/api")
	api.GET("/services", a.ListServicesHandler)
	api.GET("/services/:code/staff", a.QualifiedStaffHandler)
	api.POST("/slots/find", a.FindSlotHandler)
	api.POST("/bookings", a.CreateBookingHandler)
	api.GET("/staff/:id/appointments", a.ListAppointmentsHandler)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFindSlotHandler_Proposal(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/slots/find", gin.H{
		"service_code":       "HAIRCUT",
		"search_window_days": 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var p booking.Proposal
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.StaffName != "Alex" || p.StaffID != 1 {
		t.Errorf("proposal staff = %+v, want Alex", p)
	}
	if !p.Start.Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %s, want 09:00", p.Start)
	}
}

func TestFindSlotHandler_UnknownService(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/slots/find", gin.H{"service_code": "PERM"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(CodeServiceNotFound)) {
		t.Errorf("body = %s, want %s", w.Body.String(), CodeServiceNotFound)
	}
}

func TestFindSlotHandler_NoSlotIsOK(t *testing.T) {
	router, _ := newTestRouter(t)

	// Window far in the past relative to the seeded blocks yields nothing
	// bookable after the preferred floor.
	w := doJSON(t, router, http.MethodPost, "/api/slots/find", gin.H{
		"service_code":   "HAIRCUT",
		"preferred_time": "2026-09-20T09:00:00Z",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (expected outcome, not an error)", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(CodeNoSlot)) {
		t.Errorf("body = %s, want %s", w.Body.String(), CodeNoSlot)
	}
}

func TestCreateBookingHandler_CreatedThenConflict(t *testing.T) {
	router, _ := newTestRouter(t)
	body := gin.H{
		"customer_name": "Sam",
		"phone":         "+15550100",
		"staff_id":      1,
		"service_id":    1,
		"start_time":    "2026-09-01T09:00:00Z",
	}

	w := doJSON(t, router, http.MethodPost, "/api/bookings", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var appt calendar.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if appt.CustomerName != "Sam" {
		t.Errorf("customer = %q, want Sam", appt.CustomerName)
	}

	w = doJSON(t, router, http.MethodPost, "/api/bookings", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("second booking status = %d, want 409", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(CodeBookingConflict)) {
		t.Errorf("body = %s, want %s", w.Body.String(), CodeBookingConflict)
	}
}

func TestCreateBookingHandler_InvalidStartTime(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/bookings", gin.H{
		"customer_name": "Sam",
		"phone":         "+15550100",
		"staff_id":      1,
		"service_id":    1,
		"start_time":    "tomorrow at noon",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(CodeBadStartTime)) {
		t.Errorf("body = %s, want %s", w.Body.String(), CodeBadStartTime)
	}
}

func TestListAppointmentsHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/bookings", gin.H{
		"customer_name": "Sam",
		"phone":         "+15550100",
		"staff_id":      1,
		"service_id":    1,
		"start_time":    "2026-09-01T09:00:00Z",
	})

	w := doJSON(t, router, http.MethodGet,
		"/api/staff/1/appointments?from=2026-09-01T00:00:00Z&to=2026-09-02T00:00:00Z", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var appts []calendar.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &appts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("appointments = %d, want 1", len(appts))
	}
}

func TestQualifiedStaffHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/services/HAIRCUT/staff", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Service catalog.Service `json:"service"`
		Staff   []catalog.Staff `json:"staff"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Service.Code != "HAIRCUT" || len(resp.Staff) != 1 {
		t.Errorf("resp = %+v, want HAIRCUT with one staff", resp)
	}
}
