package catalog

import "time"

// Staff is a bookable member of the shop roster. The roster is seeded once
// and treated as read-only at runtime.
type Staff struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Service is a catalog entry with a canonical code (e.g. HAIRCUT).
// DurationMin is the nominal length; bookings over-allocate to the next
// block boundary when it is not a multiple of the calendar granularity.
type Service struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_minutes"`
	PriceCents  int    `json:"price_cents"`
}

// Duration returns the service length as a time.Duration.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}
