package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// refDay is Wednesday 9 July 2025, the injected "today" for every test.
var refDay = time.Date(2025, time.July, 9, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireMatch(t *testing.T, text string) domain.DeliveryInterval {
	t.Helper()
	out := Parse(text, refDay)
	require.Equal(t, domain.KindMatch, out.Kind, "expected a match for %q", text)
	require.True(t, out.Interval.Valid())
	return out.Interval
}

func TestParse_ArrivingToday(t *testing.T) {
	iv := requireMatch(t, "Arriving today")

	assert.Equal(t, refDay, iv.Start)
	assert.False(t, iv.HasEnd())
	assert.False(t, iv.HasTimeOfDay)
}

func TestParse_ArrivingTomorrow(t *testing.T) {
	iv := requireMatch(t, "Arriving tomorrow")

	assert.Equal(t, day(2025, time.July, 10), iv.Start)
	assert.False(t, iv.HasTimeOfDay)
}

func TestParse_TomorrowWithClockRange(t *testing.T) {
	iv := requireMatch(t, "Arriving tomorrow 10am - 2pm")

	assert.Equal(t, time.Date(2025, time.July, 10, 10, 0, 0, 0, time.UTC), iv.Start)
	assert.Equal(t, time.Date(2025, time.July, 10, 14, 0, 0, 0, time.UTC), iv.End)
	assert.True(t, iv.HasTimeOfDay)
}

func TestParse_ClockRangeWithMinutesAndEnDash(t *testing.T) {
	iv := requireMatch(t, "Arriving today 10:30am–2:15pm")

	assert.Equal(t, time.Date(2025, time.July, 9, 10, 30, 0, 0, time.UTC), iv.Start)
	assert.Equal(t, time.Date(2025, time.July, 9, 14, 15, 0, 0, time.UTC), iv.End)
}

func TestParse_NoonAndMidnightConversion(t *testing.T) {
	iv := requireMatch(t, "Arriving today 12am - 12pm")

	assert.Equal(t, 0, iv.Start.Hour())
	assert.Equal(t, 12, iv.End.Hour())
}

func TestParse_ReversedClockRangeDegradesToWholeDay(t *testing.T) {
	iv := requireMatch(t, "Arriving today 4pm - 2pm")

	assert.False(t, iv.HasTimeOfDay)
	assert.Equal(t, refDay, iv.Start)
	assert.False(t, iv.HasEnd())
}

func TestParse_Delivered(t *testing.T) {
	out := Parse("Delivered 9 July", refDay)
	assert.Equal(t, domain.KindExcluded, out.Kind)
}

func TestParse_DeliveredInterior(t *testing.T) {
	out := Parse("Package was delivered to your door", refDay)
	assert.Equal(t, domain.KindExcluded, out.Kind)
}

func TestParse_WillBeDeliveredIsNotDelivered(t *testing.T) {
	iv := requireMatch(t, "Your package will be delivered tomorrow")
	assert.Equal(t, day(2025, time.July, 10), iv.Start)
}

func TestParse_NowExpectedBy(t *testing.T) {
	iv := requireMatch(t, "Now expected by 19 July")

	assert.Equal(t, day(2025, time.July, 19), iv.Start)
	assert.False(t, iv.HasEnd())
}

func TestParse_WeekdayResolvesForward(t *testing.T) {
	// refDay is a Wednesday, so Friday is two days out.
	iv := requireMatch(t, "Arriving Friday")
	assert.Equal(t, day(2025, time.July, 11), iv.Start)
}

func TestParse_SameWeekdayMeansNextWeek(t *testing.T) {
	iv := requireMatch(t, "Arriving Wednesday")
	assert.Equal(t, day(2025, time.July, 16), iv.Start)
}

func TestParse_WeekdayNeedsArrivingContext(t *testing.T) {
	out := Parse("Monday", refDay)
	assert.Equal(t, domain.KindNoMatch, out.Kind)
}

func TestParse_WeekdayWithClockRange(t *testing.T) {
	iv := requireMatch(t, "Arriving Monday 9am - 1pm")

	assert.Equal(t, time.Date(2025, time.July, 14, 9, 0, 0, 0, time.UTC), iv.Start)
	assert.Equal(t, time.Date(2025, time.July, 14, 13, 0, 0, 0, time.UTC), iv.End)
}

func TestParse_RelativeOffset(t *testing.T) {
	iv := requireMatch(t, "Arriving in 3 days")
	assert.Equal(t, day(2025, time.July, 12), iv.Start)
}

func TestParse_RelativeOffsetWithin(t *testing.T) {
	iv := requireMatch(t, "Expected within 5 days")
	assert.Equal(t, day(2025, time.July, 14), iv.Start)
}

func TestParse_DateRangeEndExclusive(t *testing.T) {
	iv := requireMatch(t, "16 July - 19 July")

	assert.Equal(t, day(2025, time.July, 16), iv.Start)
	assert.Equal(t, day(2025, time.July, 20), iv.End)
	assert.False(t, iv.HasTimeOfDay)
}

func TestParse_DateRangeWithExplicitYearOnEnd(t *testing.T) {
	iv := requireMatch(t, "Arriving 16 Jul - 19 Jul 2026")

	assert.Equal(t, day(2025, time.July, 16), iv.Start)
	assert.Equal(t, day(2026, time.July, 20), iv.End)
}

func TestParse_CompactRange(t *testing.T) {
	iv := requireMatch(t, "Estimated delivery: 15-20 July 2024")

	assert.Equal(t, day(2024, time.July, 15), iv.Start)
	assert.Equal(t, day(2024, time.July, 21), iv.End)
}

func TestParse_ReversedDateRangeFallsBackToFirstDate(t *testing.T) {
	// The range rule declines a backwards range; the single-date rule then
	// claims the first date it finds.
	iv := requireMatch(t, "19 July - 16 July")
	assert.Equal(t, day(2025, time.July, 19), iv.Start)
	assert.False(t, iv.HasEnd())
}

func TestParse_SingleDateWithYear(t *testing.T) {
	iv := requireMatch(t, "Arriving 14 July 2026")
	assert.Equal(t, day(2026, time.July, 14), iv.Start)
}

func TestParse_MonthDayYearForm(t *testing.T) {
	iv := requireMatch(t, "Expected July 14, 2026")
	assert.Equal(t, day(2026, time.July, 14), iv.Start)
}

func TestParse_SingleDateWithoutYearUsesReferenceYear(t *testing.T) {
	iv := requireMatch(t, "Expected 9 July")
	assert.Equal(t, day(2025, time.July, 9), iv.Start)
}

func TestParse_NumericDateFourDigitYear(t *testing.T) {
	iv := requireMatch(t, "Expected 16-07-2025")
	assert.Equal(t, day(2025, time.July, 16), iv.Start)
}

func TestParse_NumericDateSlashes(t *testing.T) {
	iv := requireMatch(t, "Expected 16/07/2025")
	assert.Equal(t, day(2025, time.July, 16), iv.Start)
}

func TestParse_TwoDigitYearPivot(t *testing.T) {
	iv := requireMatch(t, "Expected 05/03/49")
	assert.Equal(t, day(2049, time.March, 5), iv.Start)

	iv = requireMatch(t, "Expected 05/03/75")
	assert.Equal(t, day(1975, time.March, 5), iv.Start)
}

func TestParse_InvalidCalendarDayIsNoMatch(t *testing.T) {
	out := Parse("Expected 31 February", refDay)
	assert.Equal(t, domain.KindNoMatch, out.Kind)
}

func TestParse_InvalidNumericMonthIsNoMatch(t *testing.T) {
	out := Parse("Expected 16/13/2025", refDay)
	assert.Equal(t, domain.KindNoMatch, out.Kind)
}

func TestParse_GarbageIsNoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"Order placed",
		"Preparing for dispatch",
		"Refund issued",
	} {
		out := Parse(text, refDay)
		assert.Equal(t, domain.KindNoMatch, out.Kind, "text %q", text)
	}
}

func TestParse_IsCaseInsensitive(t *testing.T) {
	iv := requireMatch(t, "ARRIVING TOMORROW")
	assert.Equal(t, day(2025, time.July, 10), iv.Start)
}

func TestParse_ReferenceClockIsIgnored(t *testing.T) {
	lateEvening := time.Date(2025, time.July, 9, 23, 45, 12, 0, time.UTC)

	iv := requireMatch(t, "Arriving today")
	ivLate := Parse("Arriving today", lateEvening).Interval
	assert.Equal(t, iv, ivLate)
}

func TestParse_DeterministicForSameInput(t *testing.T) {
	first := Parse("Arriving tomorrow 10am - 2pm", refDay)
	second := Parse("Arriving tomorrow 10am - 2pm", refDay)
	assert.Equal(t, first, second)
}
