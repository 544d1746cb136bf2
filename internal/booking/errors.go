package booking

import (
	"errors"

	"booking-service/internal/calendar"
	"booking-service/internal/catalog"
)

// Error taxonomy. Everything here is recoverable by the caller: the
// dialogue layer retries find-slot on conflict and widens the window on
// no-availability. None of these are process-fatal.
var (
	ErrServiceNotFound  = catalog.ErrServiceNotFound
	ErrStaffNotFound    = catalog.ErrStaffNotFound
	ErrNotQualified     = errors.New("staff not qualified for service")
	ErrInvalidStartTime = errors.New("invalid start time")
	ErrNoAvailability   = errors.New("no matching availability")
	ErrConflict         = calendar.ErrConflict
	ErrStoreUnavailable = errors.New("calendar store unavailable")
)
