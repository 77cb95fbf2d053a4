package models

import (
	"fmt"
	"strings"
)

// Weekday is the canonical upper-case day name used across the timetable.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// AllDays selects every day when listing the timetable.
const AllDays = "ALL"

// Weekdays lists days in calendar order starting on Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday accepts full or three-letter day names in any case.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("day is required")
	}
	for _, day := range Weekdays {
		if value == string(day) || (len(value) == 3 && strings.HasPrefix(string(day), value)) {
			return day, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// Ordinal returns 1 for Monday through 7 for Sunday, 0 for unknown values.
func (d Weekday) Ordinal() int {
	for i, day := range Weekdays {
		if day == d {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether d is one of the seven canonical days.
func (d Weekday) Valid() bool {
	return d.Ordinal() > 0
}
