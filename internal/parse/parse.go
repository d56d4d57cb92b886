// Package parse converts one raw delivery-status line into a canonical
// delivery interval. Parsing is pure: the reference day is injected, no
// clock or I/O is touched, and malformed input yields NoMatch rather than
// an error.
package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// input carries the shared state matchers operate on: the lowercased text
// with any clock range already stripped, the reference day, and the
// extracted clock range when one was found.
type input struct {
	text  string
	today time.Time
	times *clockRange
}

// matcher is one parsing strategy. It reports whether it claimed the text;
// an unclaimed text falls through to the next strategy. Strategies are
// ordered most-specific first so a consumed fragment is never revisited by
// a looser pattern.
type matcher func(in input) (domain.MatchOutcome, bool)

// matchers is the resolution order. The delivered check runs before any
// date extraction so a delivered-but-dated line never becomes an event.
var matchers = []matcher{
	matchDelivered,
	matchExpectedBy,
	matchToday,
	matchTomorrow,
	matchWeekday,
	matchRelativeOffset,
	matchDateRange,
	matchSingleDate,
}

// Parse resolves text against the reference day. The day part of today is
// used; its clock part is ignored.
func Parse(text string, today time.Time) domain.MatchOutcome {
	in := input{
		text:  normalize(text),
		today: domain.DateOf(today),
	}

	// Clock-range extraction is a shared pre-step, not a rule of its own:
	// "tomorrow 10am - 2pm" needs both halves. Unparseable clock text
	// degrades silently to date-only.
	in.times, in.text = extractClockRange(in.text)

	for _, m := range matchers {
		if outcome, ok := m(in); ok {
			return outcome
		}
	}
	return domain.NoMatch()
}

// matchDelivered recognises terminal delivered statuses. The check is
// anchored: a leading "delivered" or an interior " delivered " counts, but
// "will be delivered" does not.
func matchDelivered(in input) (domain.MatchOutcome, bool) {
	t := in.text
	if strings.HasPrefix(t, "delivered") {
		return domain.Excluded(), true
	}
	if strings.Contains(t, " delivered ") && !strings.Contains(t, "will be delivered") {
		return domain.Excluded(), true
	}
	return domain.MatchOutcome{}, false
}

// matchExpectedBy handles revised estimates: "now expected by 19 July".
func matchExpectedBy(in input) (domain.MatchOutcome, bool) {
	rest, ok := strings.CutPrefix(in.text, "now expected by")
	if !ok {
		return domain.MatchOutcome{}, false
	}
	day, ok := parseDayMonth(strings.TrimSpace(rest), in.today.Year(), in.today.Location())
	if !ok {
		return domain.MatchOutcome{}, false
	}
	return domain.Matched(domain.WholeDay(day)), true
}

func matchToday(in input) (domain.MatchOutcome, bool) {
	if !strings.Contains(in.text, "today") {
		return domain.MatchOutcome{}, false
	}
	return combine(in.today, in.times), true
}

func matchTomorrow(in input) (domain.MatchOutcome, bool) {
	if !strings.Contains(in.text, "tomorrow") {
		return domain.MatchOutcome{}, false
	}
	return combine(in.today.AddDate(0, 0, 1), in.times), true
}

// matchWeekday resolves a named weekday under an "arriving" context to its
// next occurrence strictly after today: naming today's weekday means next
// week, never today.
func matchWeekday(in input) (domain.MatchOutcome, bool) {
	if !strings.Contains(in.text, "arriving") {
		return domain.MatchOutcome{}, false
	}
	target, ok := findWeekday(in.text)
	if !ok {
		return domain.MatchOutcome{}, false
	}
	ahead := (int(target) - int(in.today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return combine(in.today.AddDate(0, 0, ahead), in.times), true
}

// matchRelativeOffset handles "in 3 days" and "within 5 days".
func matchRelativeOffset(in input) (domain.MatchOutcome, bool) {
	m := relativeOffsetRe.FindStringSubmatch(in.text)
	if m == nil {
		return domain.MatchOutcome{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.MatchOutcome{}, false
	}
	return combine(in.today.AddDate(0, 0, n), in.times), true
}

// matchDateRange handles "16 July - 19 July", "16 Jul - 19 Jul 2026" and
// the compact "15-20 July 2024" form. The returned end is the last named
// day plus one: the calendar format treats range ends as exclusive, so the
// adjustment happens here, at parse time. A clock range elsewhere in the
// text means the dash belonged to it, so this rule stands down.
func matchDateRange(in input) (domain.MatchOutcome, bool) {
	if in.times != nil {
		return domain.MatchOutcome{}, false
	}
	text := stripStatusPrefixes(in.text)

	if iv, ok := parseCompactRange(text, in.today); ok {
		return domain.Matched(iv), true
	}

	first, second, ok := splitDash(text)
	if !ok {
		return domain.MatchOutcome{}, false
	}
	start, ok := parseDayMonth(first, in.today.Year(), in.today.Location())
	if !ok {
		return domain.MatchOutcome{}, false
	}
	end, ok := parseDayMonthYear(second, start.Year(), in.today.Location())
	if !ok {
		return domain.MatchOutcome{}, false
	}
	end = end.AddDate(0, 0, 1)
	if !end.After(start) {
		return domain.MatchOutcome{}, false
	}
	return domain.Matched(domain.DateRange(start, end)), true
}

// matchSingleDate handles explicit dates: "14 July 2026", "July 14, 2026",
// "9 July", and numeric DD/MM/YYYY, DD-MM-YYYY and two-digit-year forms.
// Patterns carrying an explicit four-digit year are tried before the same
// pattern without one. A leading status prefix is stripped first.
func matchSingleDate(in input) (domain.MatchOutcome, bool) {
	text := stripStatusPrefixes(in.text)
	day, ok := findSingleDate(text, in.today.Year(), in.today.Location())
	if !ok {
		return domain.MatchOutcome{}, false
	}
	return combine(day, in.times), true
}

// combine attaches the extracted clock range to the resolved day. A range
// whose end is not strictly after its start is discarded the same way an
// unparseable one is: degrade to a whole-day interval, never an error.
func combine(day time.Time, times *clockRange) domain.MatchOutcome {
	if times == nil {
		return domain.Matched(domain.WholeDay(day))
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, times.startHour, times.startMin, 0, 0, day.Location())
	end := time.Date(y, m, d, times.endHour, times.endMin, 0, 0, day.Location())
	if !end.After(start) {
		return domain.Matched(domain.WholeDay(day))
	}
	return domain.Matched(domain.TimedRange(start, end))
}
