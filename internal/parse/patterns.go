package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// clockRange is a 12-hour clock window extracted from the status text,
// already converted to 24-hour values.
type clockRange struct {
	startHour, startMin int
	endHour, endMin     int
}

var (
	// clockRangeRe matches "10am - 2pm", "10:30am-2:30pm", hyphen or
	// en-dash separator, optional minutes.
	clockRangeRe = regexp.MustCompile(`(\d{1,2}(?::\d{2})?)\s*([ap]m)\s*[-–]\s*(\d{1,2}(?::\d{2})?)\s*([ap]m)`)

	relativeOffsetRe = regexp.MustCompile(`\b(?:in|within)\s+(\d+)\s+days?\b`)

	dashSplitRe = regexp.MustCompile(`\s*[-–]\s*`)

	// compactRangeRe matches "15-20 July 2024": two day numbers sharing one
	// month, year optional.
	compactRangeRe = regexp.MustCompile(`^(\d{1,2})\s*[-–]\s*(\d{1,2})\s+([a-z]+)(?:\s+(\d{4}))?$`)

	dayMonthRe     = regexp.MustCompile(`^(\d{1,2})\s+([a-z]+)$`)
	dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})\s+([a-z]+)(?:\s+(\d{4}))?$`)

	// Single-date search patterns, most specific first: explicit four-digit
	// years are claimed before the same shape without a year.
	findDayMonthYearRe = regexp.MustCompile(`\b(\d{1,2})\s+([a-z]+)\s+(\d{4})\b`)
	findMonthDayYearRe = regexp.MustCompile(`\b([a-z]+)\s+(\d{1,2}),?\s+(\d{4})\b`)
	findNumeric4Re     = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
	findNumeric2Re     = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2})\b`)
	findDayMonthRe     = regexp.MustCompile(`\b(\d{1,2})\s+([a-z]+)\b`)
	findMonthDayRe     = regexp.MustCompile(`\b([a-z]+)\s+(\d{1,2})\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// weekdayNames in the order the original status text names them.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// statusPrefixes are lead-ins that carry no date information.
var statusPrefixes = []string{
	"expected delivery:",
	"estimated delivery:",
	"expected arrival:",
	"estimated arrival:",
	"delivered ",
	"arriving ",
	"expected ",
	"estimated ",
}

// normalize lowercases and trims the raw status line.
func normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

// extractClockRange pulls a 12-hour clock window out of the text and
// returns the text with that substring removed. If the clock fragments do
// not parse as valid times the extraction is discarded entirely and the
// text returned untouched.
func extractClockRange(text string) (*clockRange, string) {
	loc := clockRangeRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, text
	}
	m := clockRangeRe.FindStringSubmatch(text)

	sh, sm, ok := parseClock(m[1], m[2])
	if !ok {
		return nil, text
	}
	eh, em, ok := parseClock(m[3], m[4])
	if !ok {
		return nil, text
	}

	stripped := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
	return &clockRange{startHour: sh, startMin: sm, endHour: eh, endMin: em}, stripped
}

// parseClock converts "10" or "10:30" plus an am/pm marker to 24-hour values.
func parseClock(hhmm, meridiem string) (hour, minute int, ok bool) {
	hs, ms, hasMin := strings.Cut(hhmm, ":")

	hour, err := strconv.Atoi(hs)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	if hasMin {
		minute, err = strconv.Atoi(ms)
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, false
		}
	}

	hour %= 12
	if meridiem == "pm" {
		hour += 12
	}
	return hour, minute, true
}

// findWeekday returns the first weekday named in the text.
func findWeekday(text string) (time.Weekday, bool) {
	for _, w := range weekdayNames {
		if strings.Contains(text, w.name) {
			return w.day, true
		}
	}
	return 0, false
}

// stripStatusPrefixes removes date-free lead-ins so the date patterns see
// only the fragment that matters.
func stripStatusPrefixes(text string) string {
	for _, p := range statusPrefixes {
		text = strings.ReplaceAll(text, p, "")
	}
	return strings.TrimSpace(text)
}

// splitDash splits "16 july - 19 july" into its two fragments.
func splitDash(text string) (first, second string, ok bool) {
	parts := dashSplitRe.Split(text, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	first = strings.TrimSpace(parts[0])
	second = strings.TrimSpace(parts[1])
	return first, second, first != "" && second != ""
}

// parseDayMonth parses "16 july" with the supplied default year.
func parseDayMonth(text string, year int, loc *time.Location) (time.Time, bool) {
	m := dayMonthRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return buildNamedDate(m[1], m[2], year, loc)
}

// parseDayMonthYear parses "19 july" or "19 july 2026"; a missing year
// defaults to the supplied one.
func parseDayMonthYear(text string, defaultYear int, loc *time.Location) (time.Time, bool) {
	m := dayMonthYearRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year := defaultYear
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	return buildNamedDate(m[1], m[2], year, loc)
}

// parseCompactRange parses "15-20 July 2024" into a date-only interval with
// the exclusive-end adjustment applied.
func parseCompactRange(text string, today time.Time) (domain.DeliveryInterval, bool) {
	m := compactRangeRe.FindStringSubmatch(text)
	if m == nil {
		return domain.DeliveryInterval{}, false
	}
	year := today.Year()
	if m[4] != "" {
		year, _ = strconv.Atoi(m[4])
	}
	start, ok := buildNamedDate(m[1], m[3], year, today.Location())
	if !ok {
		return domain.DeliveryInterval{}, false
	}
	end, ok := buildNamedDate(m[2], m[3], year, today.Location())
	if !ok {
		return domain.DeliveryInterval{}, false
	}
	end = end.AddDate(0, 0, 1)
	if !end.After(start) {
		return domain.DeliveryInterval{}, false
	}
	return domain.DateRange(start, end), true
}

// findSingleDate searches the text for an explicit date, trying patterns
// with a four-digit year before year-less ones.
func findSingleDate(text string, refYear int, loc *time.Location) (time.Time, bool) {
	if m := findDayMonthYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildNamedDate(m[1], m[2], year, loc); ok {
			return d, true
		}
	}
	if m := findMonthDayYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildNamedDate(m[2], m[1], year, loc); ok {
			return d, true
		}
	}
	if m := findNumeric4Re.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildNumericDate(m[1], m[2], year, loc); ok {
			return d, true
		}
	}
	if m := findNumeric2Re.FindStringSubmatch(text); m != nil {
		// Two-digit year pivot: <50 is the 2000s, the rest the 1900s.
		yy, _ := strconv.Atoi(m[3])
		year := yy + 1900
		if yy < 50 {
			year = yy + 2000
		}
		if d, ok := buildNumericDate(m[1], m[2], year, loc); ok {
			return d, true
		}
	}
	if m := findDayMonthRe.FindStringSubmatch(text); m != nil {
		if d, ok := buildNamedDate(m[1], m[2], refYear, loc); ok {
			return d, true
		}
	}
	if m := findMonthDayRe.FindStringSubmatch(text); m != nil {
		if d, ok := buildNamedDate(m[2], m[1], refYear, loc); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// buildNamedDate assembles a date from a day number and a month name,
// rejecting unknown months and out-of-range days.
func buildNamedDate(dayStr, monthName string, year int, loc *time.Location) (time.Time, bool) {
	month, ok := monthsByName[monthName]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	return buildDate(year, month, day, loc)
}

// buildNumericDate assembles a date from DD and MM strings.
func buildNumericDate(dayStr, monthStr string, year int, loc *time.Location) (time.Time, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	mo, err := strconv.Atoi(monthStr)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	return buildDate(year, time.Month(mo), day, loc)
}

// buildDate validates day-of-month by checking the constructed date did
// not normalise into the next month ("31 Feb" is rejected, not shifted).
func buildDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
