package domain

import "time"

// DeliveryInterval is a canonical delivery window: a start point and an
// optional end point. Both carry a time of day or neither does; date-only
// and timed representations are never mixed within one interval.
//
// The end is exclusive. When an interval is derived from inclusive "last
// day" text ("16 July - 19 July"), the parser adds one day at parse time,
// matching the calendar file's range convention.
type DeliveryInterval struct {
	// Start is the first instant of the window. For date-only intervals the
	// clock part is midnight and HasTimeOfDay is false.
	Start time.Time

	// End is the first instant after the window. Zero means the interval is
	// a single point (one day, or one timed start with no bound).
	End time.Time

	// HasTimeOfDay is true iff both Start and End carry a clock time.
	HasTimeOfDay bool
}

// HasEnd reports whether the interval carries an end point.
func (iv DeliveryInterval) HasEnd() bool {
	return !iv.End.IsZero()
}

// Valid reports whether the interval honours its invariants: a non-zero
// start, and an end strictly after the start when present.
func (iv DeliveryInterval) Valid() bool {
	if iv.Start.IsZero() {
		return false
	}
	if iv.HasEnd() && !iv.End.After(iv.Start) {
		return false
	}
	if iv.HasTimeOfDay && !iv.HasEnd() {
		return false
	}
	return true
}

// WholeDay builds a date-only interval covering a single day.
func WholeDay(day time.Time) DeliveryInterval {
	return DeliveryInterval{Start: DateOf(day)}
}

// DateRange builds a date-only interval with an exclusive end.
func DateRange(start, endExclusive time.Time) DeliveryInterval {
	return DeliveryInterval{Start: DateOf(start), End: DateOf(endExclusive)}
}

// TimedRange builds a timed interval on a single day.
func TimedRange(start, end time.Time) DeliveryInterval {
	return DeliveryInterval{Start: start, End: end, HasTimeOfDay: true}
}

// DateOf strips the clock from t, keeping the calendar day and location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
