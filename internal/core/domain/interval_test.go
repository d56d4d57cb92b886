package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWholeDay(t *testing.T) {
	iv := WholeDay(time.Date(2025, time.July, 10, 15, 4, 5, 0, time.UTC))

	assert.Equal(t, time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC), iv.Start)
	assert.False(t, iv.HasEnd())
	assert.False(t, iv.HasTimeOfDay)
	assert.True(t, iv.Valid())
}

func TestDateRange(t *testing.T) {
	iv := DateRange(
		time.Date(2025, time.July, 16, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 20, 9, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, time.Date(2025, time.July, 16, 0, 0, 0, 0, time.UTC), iv.Start)
	assert.Equal(t, time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC), iv.End)
	assert.False(t, iv.HasTimeOfDay)
	assert.True(t, iv.Valid())
}

func TestTimedRange(t *testing.T) {
	start := time.Date(2025, time.July, 10, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.July, 10, 14, 0, 0, 0, time.UTC)
	iv := TimedRange(start, end)

	assert.Equal(t, start, iv.Start)
	assert.Equal(t, end, iv.End)
	assert.True(t, iv.HasTimeOfDay)
	assert.True(t, iv.Valid())
}

func TestValid_RejectsZeroStart(t *testing.T) {
	assert.False(t, DeliveryInterval{}.Valid())
}

func TestValid_RejectsEndNotAfterStart(t *testing.T) {
	day := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, DeliveryInterval{Start: day, End: day}.Valid())
	assert.False(t, DeliveryInterval{Start: day, End: day.Add(-time.Hour)}.Valid())
}

func TestValid_RejectsTimedWithoutEnd(t *testing.T) {
	iv := DeliveryInterval{
		Start:        time.Date(2025, time.July, 10, 10, 0, 0, 0, time.UTC),
		HasTimeOfDay: true,
	}
	assert.False(t, iv.Valid())
}

func TestDateOf_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := DateOf(time.Date(2025, time.July, 10, 23, 45, 0, 0, loc))

	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 10, d.Day())
}

func TestMatchKind_String(t *testing.T) {
	assert.Equal(t, "match", KindMatch.String())
	assert.Equal(t, "no-match", KindNoMatch.String())
	assert.Equal(t, "excluded", KindExcluded.String())
}
