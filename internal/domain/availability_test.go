package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"09:30", 570, true},
		{"9:30", 570, true},
		{"23:59", 1439, true},
		{"00:00", 0, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseClock(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.minutes, got, tc.in)
	}
	assert.Equal(t, "09:05", FormatClock(545))
}

func TestWeekdayOrder(t *testing.T) {
	assert.Equal(t, 0, Monday.Index())
	assert.Equal(t, 6, Sunday.Index())
	assert.False(t, Weekday("Monday").Valid())
}

func TestSlotOverlap(t *testing.T) {
	a := AvailabilitySlot{Day: Monday, Start: "09:00", End: "12:00"}
	assert.True(t, a.Overlaps(AvailabilitySlot{Day: Monday, Start: "11:00", End: "13:00"}))
	assert.False(t, a.Overlaps(AvailabilitySlot{Day: Monday, Start: "12:00", End: "13:00"}))
	assert.False(t, a.Overlaps(AvailabilitySlot{Day: Tuesday, Start: "09:00", End: "12:00"}))
}
