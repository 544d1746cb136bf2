package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"booking-service/internal/calendar"
	"booking-service/internal/catalog"
)

// DefaultWindowDays is the initial search window. Callers widen it across
// repeated "next available" requests (3 -> 7 -> 14).
const DefaultWindowDays = 3

// Catalog is the read-only staff/service registry the engine searches over.
type Catalog interface {
	ServiceByCode(ctx context.Context, code string) (catalog.Service, error)
	ServiceByID(ctx context.Context, id int) (catalog.Service, error)
	StaffQualifiedFor(ctx context.Context, serviceID int) ([]catalog.Staff, error)
	StaffByID(ctx context.Context, id int) (catalog.Staff, error)
	IsQualified(ctx context.Context, staffID, serviceID int) (bool, error)
}

// CalendarStore is the single shared mutable resource. Reads are
// freely concurrent; all mutation goes through calendar.Tx.
type CalendarStore interface {
	FreeBlocks(ctx context.Context, staffID int, from, to time.Time) ([]calendar.TimeBlock, error)
	BlocksInRange(ctx context.Context, staffID int, from, to time.Time) ([]calendar.TimeBlock, error)
	FreeBlocksOverlapping(ctx context.Context, staffID int, from, to time.Time) ([]calendar.TimeBlock, error)
	AppointmentsInRange(ctx context.Context, staffID int, from, to time.Time) ([]calendar.Appointment, error)
	Begin(ctx context.Context) (calendar.Tx, error)
}

// Proposal is a candidate slot. It reserves nothing: between proposal and
// confirmation the same blocks stay visible to every other caller.
type Proposal struct {
	StaffName string    `json:"staff_name"`
	StaffID   int       `json:"staff_id"`
	ServiceID int       `json:"service_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Engine implements slot search and the booking transaction.
type Engine struct {
	Catalog Catalog
	Store   CalendarStore
	Log     *zap.Logger

	// Timeout bounds each operation; live phone calls cannot wait on a
	// hung store. Zero means no engine-imposed deadline.
	Timeout time.Duration

	// Now is a seam for tests; nil means time.Now.
	Now func() time.Time
}

func NewEngine(cat Catalog, store CalendarStore, log *zap.Logger, timeout time.Duration) *Engine {
	return &Engine{Catalog: cat, Store: store, Log: log, Timeout: timeout}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Engine) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return ctx, func() {}
}

// FindSlot searches for the first staff member (roster order) with the
// earliest contiguous run of free blocks covering the service duration.
// preferredTime is RFC3339; empty or unparseable input falls back to "now"
// without erroring the caller. windowDays <= 0 uses DefaultWindowDays.
//
// A nil error means a valid proposal; ErrNoAvailability is the expected
// empty outcome, not a failure.
func (e *Engine) FindSlot(ctx context.Context, serviceCode, preferredTime string, windowDays int) (*Proposal, error) {
	ctx, cancel := e.deadline(ctx)
	defer cancel()

	svc, err := e.Catalog.ServiceByCode(ctx, serviceCode)
	if errors.Is(err, catalog.ErrServiceNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, e.storeErr("find_slot: resolve service", err)
	}

	floor := e.now()
	if preferredTime != "" {
		if t, perr := time.Parse(time.RFC3339, preferredTime); perr == nil {
			floor = t
		}
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	windowEnd := floor.AddDate(0, 0, windowDays)
	span := calendar.RoundUpToBlock(svc.Duration())

	staff, err := e.Catalog.StaffQualifiedFor(ctx, svc.ID)
	if err != nil {
		return nil, e.storeErr("find_slot: list staff", err)
	}

	for _, st := range staff {
		// Fetch past windowEnd by one span so a run starting at the
		// window edge can still complete.
		blocks, err := e.Store.FreeBlocks(ctx, st.ID, floor, windowEnd.Add(span))
		if err != nil {
			return nil, e.storeErr("find_slot: free blocks", err)
		}
		for i := range blocks {
			if !blocks[i].StartAt.Before(windowEnd) {
				break
			}
			if runCovers(blocks[i:], blocks[i].StartAt.Add(span)) {
				return &Proposal{
					StaffName: st.Name,
					StaffID:   st.ID,
					ServiceID: svc.ID,
					Start:     blocks[i].StartAt,
					End:       blocks[i].StartAt.Add(svc.Duration()),
				}, nil
			}
		}
	}
	return nil, ErrNoAvailability
}

// runCovers reports whether the blocks starting at blocks[0] form a
// strictly back-to-back run reaching until. A gap between consecutive
// blocks breaks the run even when enough blocks exist in range.
func runCovers(blocks []calendar.TimeBlock, until time.Time) bool {
	end := blocks[0].EndAt
	for j := 1; end.Before(until); j++ {
		if j >= len(blocks) || !blocks[j].StartAt.Equal(end) {
			return false
		}
		end = blocks[j].EndAt
	}
	return true
}

// Book validates the request, resolves the exact covering block set and
// reserves it all-or-nothing before persisting the appointment. A lost
// race surfaces as ErrConflict with the calendar left untouched; the
// caller re-runs FindSlot and proposes again.
func (e *Engine) Book(ctx context.Context, customerName, phone string, staffID, serviceID int, startTime string) (calendar.Appointment, error) {
	ctx, cancel := e.deadline(ctx)
	defer cancel()

	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return calendar.Appointment{}, fmt.Errorf("%w: %q", ErrInvalidStartTime, startTime)
	}
	start = start.UTC()
	if start.Before(e.now()) {
		return calendar.Appointment{}, fmt.Errorf("%w: start is in the past", ErrInvalidStartTime)
	}

	svc, err := e.Catalog.ServiceByID(ctx, serviceID)
	if errors.Is(err, catalog.ErrServiceNotFound) {
		return calendar.Appointment{}, ErrServiceNotFound
	}
	if err != nil {
		return calendar.Appointment{}, e.storeErr("book: resolve service", err)
	}
	if _, err := e.Catalog.StaffByID(ctx, staffID); err != nil {
		if errors.Is(err, catalog.ErrStaffNotFound) {
			return calendar.Appointment{}, ErrStaffNotFound
		}
		return calendar.Appointment{}, e.storeErr("book: resolve staff", err)
	}
	qualified, err := e.Catalog.IsQualified(ctx, staffID, svc.ID)
	if err != nil {
		return calendar.Appointment{}, e.storeErr("book: qualification", err)
	}
	if !qualified {
		return calendar.Appointment{}, ErrNotQualified
	}

	end := start.Add(svc.Duration())
	spanEnd := start.Add(calendar.RoundUpToBlock(svc.Duration()))

	blocks, err := e.Store.BlocksInRange(ctx, staffID, start, spanEnd)
	if err != nil {
		return calendar.Appointment{}, e.storeErr("book: covering blocks", err)
	}
	if !tiles(blocks, start, spanEnd) {
		// The span is not materialized as blocks (past horizon, or the
		// proposal went stale). Retryable the same way as a lost race.
		return calendar.Appointment{}, ErrConflict
	}
	ids := make([]int64, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return calendar.Appointment{}, e.storeErr("book: begin", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.Reserve(ctx, ids); err != nil {
		if errors.Is(err, calendar.ErrConflict) {
			return calendar.Appointment{}, ErrConflict
		}
		return calendar.Appointment{}, e.storeErr("book: reserve", err)
	}
	appt, err := tx.PersistAppointment(ctx, calendar.Appointment{
		CustomerName: customerName,
		Phone:        phone,
		StaffID:      staffID,
		ServiceID:    svc.ID,
		StartAt:      start,
		EndAt:        end,
	})
	if err != nil {
		return calendar.Appointment{}, e.storeErr("book: persist", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return calendar.Appointment{}, e.storeErr("book: commit", err)
	}

	if e.Log != nil {
		e.Log.Info("appointment booked",
			zap.String("id", appt.ID.String()),
			zap.Int("staff_id", staffID),
			zap.String("service", svc.Code),
			zap.Time("start", start))
	}
	return appt, nil
}

// tiles reports whether blocks exactly cover [start, end) with no gap.
func tiles(blocks []calendar.TimeBlock, start, end time.Time) bool {
	if len(blocks) == 0 || !blocks[0].StartAt.Equal(start) {
		return false
	}
	cur := blocks[0].EndAt
	for _, b := range blocks[1:] {
		if !b.StartAt.Equal(cur) {
			return false
		}
		cur = b.EndAt
	}
	return cur.Equal(end)
}

// storeErr classifies infrastructure failures (store unreachable, deadline
// exceeded) separately from expected outcomes so they are never collapsed
// into a false "no slot".
func (e *Engine) storeErr(op string, err error) error {
	if e.Log != nil {
		e.Log.Error("calendar store failure", zap.String("op", op), zap.Error(err))
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
