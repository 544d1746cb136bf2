package calendar

import "time"

// Interval is a half-open [Start, End) span on the block grid.
type Interval struct {
	Start time.Time
	End   time.Time
}

// DayBlocks chunks one business day into Granularity-sized intervals
// between openHour and closeHour (local to day's location). The returned
// intervals are contiguous and non-overlapping.
func DayBlocks(day time.Time, openHour, closeHour int) []Interval {
	if closeHour <= openHour {
		return nil
	}
	year, month, d := day.Date()
	opens := time.Date(year, month, d, openHour, 0, 0, 0, day.Location())
	closes := time.Date(year, month, d, closeHour, 0, 0, 0, day.Location())

	var out []Interval
	for s := opens; !s.Add(Granularity).After(closes); s = s.Add(Granularity) {
		out = append(out, Interval{Start: s, End: s.Add(Granularity)})
	}
	return out
}

// HorizonBlocks generates block intervals for `days` consecutive business
// days starting at from's date.
func HorizonBlocks(from time.Time, days, openHour, closeHour int) []Interval {
	var out []Interval
	for i := 0; i < days; i++ {
		out = append(out, DayBlocks(from.AddDate(0, 0, i), openHour, closeHour)...)
	}
	return out
}
