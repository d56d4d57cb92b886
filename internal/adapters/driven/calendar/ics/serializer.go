// Package ics serializes an order sequence into an iCalendar document and
// persists it with write-then-atomic-replace semantics.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
)

// Ensure Serializer implements the interface.
var _ driven.CalendarSerializer = (*Serializer)(nil)

const (
	prodID = "-//parcelcal//delivery tracker//EN"

	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405"
	stampLayout    = "20060102T150405Z"

	// uidDomain suffixes event identifiers, base.py-style "<id>@host".
	uidDomain = "parcelcal.local"
)

// Serializer emits RFC 5545 calendar documents. Output is deterministic:
// the same order sequence and stamp produce byte-identical documents, so
// tests can compare whole files.
type Serializer struct{}

// NewSerializer creates a calendar serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize converts the ordered sequence into one calendar document.
// Whole-day orders become date-only events; timed orders become events
// bounded by [start, end). Event order follows order sequence exactly.
func (s *Serializer) Serialize(orders []domain.Order, stamp time.Time) ([]byte, error) {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")

	stampStr := stamp.UTC().Format(stampLayout)
	seen := make(map[string]int, len(orders))

	for _, o := range orders {
		if !o.Interval.Valid() {
			return nil, fmt.Errorf("%w: order %s has invalid interval", domain.ErrInvalidInput, o.ID)
		}

		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+eventUID(o, seen))
		writeLine(&b, "DTSTAMP:"+stampStr)

		if o.Interval.HasTimeOfDay {
			writeLine(&b, "DTSTART:"+o.Interval.Start.Format(dateTimeLayout))
			writeLine(&b, "DTEND:"+o.Interval.End.Format(dateTimeLayout))
		} else {
			writeLine(&b, "DTSTART;VALUE=DATE:"+o.Interval.Start.Format(dateLayout))
			if o.Interval.HasEnd() {
				writeLine(&b, "DTEND;VALUE=DATE:"+o.Interval.End.Format(dateLayout))
			}
		}

		writeLine(&b, "SUMMARY:"+escapeText(o.Title))
		if o.DetailLink != "" {
			writeLine(&b, "DESCRIPTION:"+escapeText("Order details: "+o.DetailLink))
		}
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String()), nil
}

// eventUID derives a stable identifier from the order's provenance.
// UUIDv5 keeps it deterministic across runs; the seen map disambiguates
// the (unexpected) case of two orders sharing id and title.
func eventUID(o domain.Order, seen map[string]int) string {
	name := o.Source + "/" + o.ID + "/" + o.Title
	seen[name]++
	if n := seen[name]; n > 1 {
		name = fmt.Sprintf("%s/%d", name, n)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("parcelcal://"+name))
	return id.String() + "@" + uidDomain
}

// writeLine appends one content line with the CRLF terminator the format
// requires.
func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeText escapes TEXT values per RFC 5545 §3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return r.Replace(s)
}
