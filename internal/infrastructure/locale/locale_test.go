package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2024, time.January, 15, 17, 0, 0, 0, time.UTC)
}

func TestLocalTimeFor_Code(t *testing.T) {
	h := NewHelper("UTC", "US").WithClock(fixedClock)

	assert.Equal(t, "12:00 PM", h.LocalTimeFor("1", ""))
	assert.Equal(t, "11:00 AM", h.LocalTimeFor("2", "2135550100"))
	assert.Equal(t, "9:00 AM", h.LocalTimeFor(" Pacific ", ""))
	assert.Equal(t, "7:00 AM", h.LocalTimeFor("Pacific/Honolulu", ""))
}

func TestLocalTimeFor_PhoneFallback(t *testing.T) {
	h := NewHelper("UTC", "US").WithClock(fixedClock)

	assert.Equal(t, "12:00 PM", h.LocalTimeFor("", "(305) 555-0100"))
	assert.Equal(t, "12:00 PM", h.LocalTimeFor("unknown", "+1 305 555 0100"))
	assert.Equal(t, "7:00 AM", h.LocalTimeFor("", "(808) 555-0100"))
	assert.Equal(t, "12:00 PM", h.LocalTimeFor("", "+57 601 234 5678"))
}

func TestLocalTimeFor_IANACodeKeepsCase(t *testing.T) {
	h := NewHelper("UTC", "US").WithClock(fixedClock)

	assert.Equal(t, "12:00 PM", h.LocalTimeFor(" America/Bogota ", ""))
	assert.Equal(t, "Pacific/Honolulu", h.ZoneFor("Pacific/Honolulu", "").String())
}

func TestLocalTimeFor_ShortNumberFallsBack(t *testing.T) {
	h := NewHelper("America/Chicago", "US").WithClock(fixedClock)

	assert.NotPanics(t, func() {
		assert.Equal(t, "11:00 AM", h.LocalTimeFor("", "+1 2"))
	})
}

func TestLocalTimeFor_Default(t *testing.T) {
	h := NewHelper("America/Chicago", "US").WithClock(fixedClock)

	assert.Equal(t, "11:00 AM", h.LocalTimeFor("", ""))
	assert.Equal(t, "11:00 AM", h.LocalTimeFor("99", "abc"))
}

func TestNewHelper_BadDefaultZone(t *testing.T) {
	h := NewHelper("Nowhere/City", "US").WithClock(fixedClock)
	assert.Equal(t, time.UTC, h.ZoneFor("", ""))
	assert.Equal(t, "5:00 PM", h.LocalTimeFor("", ""))
}
