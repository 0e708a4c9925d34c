package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Weekday names a day of the working week, Monday first.
type Weekday string

const (
	Monday    Weekday = "Lundi"
	Tuesday   Weekday = "Mardi"
	Wednesday Weekday = "Mercredi"
	Thursday  Weekday = "Jeudi"
	Friday    Weekday = "Vendredi"
	Saturday  Weekday = "Samedi"
	Sunday    Weekday = "Dimanche"
)

// Weekdays lists every day in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is a known day.
func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

// Index is the position of d in Weekdays, or -1.
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, bool) {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AvailabilitySlot is one weekly time range during which a user can be reached.
type AvailabilitySlot struct {
	ID        string
	UserID    string
	Day       Weekday
	Start     string
	End       string
	CreatedAt time.Time
}

// Overlaps reports whether s and o share a day and any minute.
func (s AvailabilitySlot) Overlaps(o AvailabilitySlot) bool {
	if s.Day != o.Day {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}
