package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"booking-service/internal/booking"
	"booking-service/internal/catalog"
)

// Status codes returned to the dialogue layer. The layer speaks these
// strings back into its call scripts, so they are part of the contract.
const (
	CodeServiceNotFound = "SERVICE_NOT_FOUND"
	CodeStaffNotFound   = "STAFF_NOT_FOUND"
	CodeNoSlot          = "NO_SLOT:no_matching_availability"
	CodeNoSlotInternal  = "NO_SLOT:internal_error"
	CodeBadStartTime    = "BOOKING_FAILED:invalid_start_time"
	CodeNotQualified    = "BOOKING_FAILED:not_qualified"
	CodeBookingConflict = "BOOKING_FAILED:conflict"
	CodeBookingInternal = "BOOKING_FAILED:internal_error"
)

// Directory is the catalog surface the HTTP layer needs: everything the
// engine reads, plus listing.
type Directory interface {
	booking.Catalog
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

type App struct {
	Engine  *booking.Engine
	Catalog Directory
	Store   booking.CalendarStore
	Log     *zap.Logger

	// External busy-sync; nil when the integration is not configured.
	GCal        *GoogleCalendarConfig
	HorizonDays int
}

// GET /api/services
func (a *App) ListServicesHandler(c *gin.Context) {
	services, err := a.Catalog.ListServices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, services)
}

// GET /api/services/:code/staff
func (a *App) QualifiedStaffHandler(c *gin.Context) {
	ctx := c.Request.Context()
	svc, err := a.Catalog.ServiceByCode(ctx, c.Param("code"))
	if errors.Is(err, catalog.ErrServiceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": CodeServiceNotFound})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	staff, err := a.Catalog.StaffQualifiedFor(ctx, svc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": svc, "staff": staff})
}

type findSlotReq struct {
	ServiceCode      string `json:"service_code" binding:"required"`
	PreferredTime    string `json:"preferred_time"`
	SearchWindowDays int    `json:"search_window_days"`
}

// POST /api/slots/find
//
// The proposal reserves nothing; the caller confirms with POST
// /api/bookings and retries here on conflict, widening the window across
// repeated "next available" turns.
func (a *App) FindSlotHandler(c *gin.Context) {
	var req findSlotReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := a.Engine.FindSlot(c.Request.Context(), req.ServiceCode, req.PreferredTime, req.SearchWindowDays)
	switch {
	case errors.Is(err, booking.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodeServiceNotFound})
	case errors.Is(err, booking.ErrNoAvailability):
		// Expected empty outcome, not a failure.
		c.JSON(http.StatusOK, gin.H{"status": CodeNoSlot})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": CodeNoSlotInternal})
	default:
		c.JSON(http.StatusOK, proposal)
	}
}

type createBookingReq struct {
	CustomerName string `json:"customer_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	StaffID      int    `json:"staff_id" binding:"required"`
	ServiceID    int    `json:"service_id" binding:"required"`
	StartTime    string `json:"start_time" binding:"required"` // RFC3339
}

// POST /api/bookings
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req createBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := a.Engine.Book(c.Request.Context(), req.CustomerName, req.Phone, req.StaffID, req.ServiceID, req.StartTime)
	switch {
	case errors.Is(err, booking.ErrInvalidStartTime):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeBadStartTime})
	case errors.Is(err, booking.ErrNotQualified):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeNotQualified})
	case errors.Is(err, booking.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodeServiceNotFound})
	case errors.Is(err, booking.ErrStaffNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodeStaffNotFound})
	case errors.Is(err, booking.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": CodeBookingConflict})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": CodeBookingInternal})
	default:
		c.JSON(http.StatusCreated, appt)
	}
}

// GET /api/staff/:id/appointments?from=ISO&to=ISO
func (a *App) ListAppointmentsHandler(c *gin.Context) {
	staffID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}
	from, to, ok := rangeParams(c)
	if !ok {
		return
	}
	appts, err := a.Store.AppointmentsInRange(c.Request.Context(), staffID, from, to)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": CodeBookingInternal})
		return
	}
	c.JSON(http.StatusOK, appts)
}

func rangeParams(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to required (ISO8601)"})
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return time.Time{}, time.Time{}, false
	}
	return from.UTC(), to.UTC(), true
}
