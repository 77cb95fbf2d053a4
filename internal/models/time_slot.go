package models

import "fmt"

// TimeSlot is a fixed weekly teaching window.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	Day       Weekday   `db:"day_of_week" json:"day"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
}

// Validate checks the day and that the slot has positive length.
func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("invalid day %q", s.Day)
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("start time %s must be before end time %s", s.StartTime, s.EndTime)
	}
	return nil
}

// Overlaps reports whether both slots fall on the same day with intersecting [start,end) ranges.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Day == other.Day && s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// Label renders the slot for humans, e.g. "MONDAY 09:00-10:30".
func (s TimeSlot) Label() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.StartTime, s.EndTime)
}
