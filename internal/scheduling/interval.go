package scheduling

import "time"

// Interval is a half-open time range [Start, End). Two intervals that merely
// touch at an endpoint do not overlap, so back-to-back bookings are legal.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// BlockedInterval derives the full window an appointment occupies on the
// staff calendar. The travel buffer extends the window backwards from the
// visible start; the service duration extends it forwards.
func BlockedInterval(startAt time.Time, travelBufferMin int, totalDuration time.Duration) Interval {
	return Interval{
		Start: startAt.Add(-time.Duration(travelBufferMin) * time.Minute),
		End:   startAt.Add(totalDuration),
	}
}
