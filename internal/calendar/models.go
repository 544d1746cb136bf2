package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Granularity is the fixed length of a bookable time block. Blocks are
// generated on this grid and never resized.
const Granularity = 30 * time.Minute

// ErrConflict is returned by Tx.Reserve when any target block is no longer
// free, i.e. the caller lost the race to a concurrent booking.
var ErrConflict = errors.New("block reservation conflict")

// TimeBlock is one bookable unit of a staff member's calendar. Blocks are
// pre-generated and only ever flipped between free and reserved.
type TimeBlock struct {
	ID       int64     `json:"id"`
	StaffID  int       `json:"staff_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Reserved bool      `json:"reserved"`
}

// Appointment is a confirmed booking. It is created only through the
// reservation transaction and never mutated afterwards.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	StaffID      int       `json:"staff_id"`
	ServiceID    int       `json:"service_id"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Tx is the transactional boundary of the calendar store. Reserve and
// PersistAppointment take effect together at Commit; Rollback leaves the
// calendar exactly as it was.
type Tx interface {
	// Reserve flips the given blocks from free to reserved. It fails with
	// ErrConflict, flipping nothing, if any block is already reserved.
	Reserve(ctx context.Context, blockIDs []int64) error

	// PersistAppointment stores the appointment and returns it with its
	// assigned identity.
	PersistAppointment(ctx context.Context, a Appointment) (Appointment, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RoundUpToBlock rounds a duration up to the next whole block. A service
// shorter than its rounded span over-allocates trailing minutes rather
// than under-booking the calendar.
func RoundUpToBlock(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	blocks := (d + Granularity - 1) / Granularity
	return blocks * Granularity
}
