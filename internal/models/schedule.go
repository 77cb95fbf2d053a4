package models

import "time"

// ScheduleEntry books a course, professor and room into a time slot.
// Entries are never mutated once committed; they are only deleted.
type ScheduleEntry struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	TimeSlotID  string    `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Course    *Course    `db:"-" json:"course,omitempty"`
	Professor *Professor `db:"-" json:"professor,omitempty"`
	Room      *Room      `db:"-" json:"room,omitempty"`
	TimeSlot  *TimeSlot  `db:"-" json:"time_slot,omitempty"`
}

// ConflictDimension names what two clashing entries share.
type ConflictDimension string

const (
	ConflictProfessor ConflictDimension = "PROFESSOR"
	ConflictRoom      ConflictDimension = "ROOM"
	ConflictBoth      ConflictDimension = "BOTH"
)

// ScheduleConflict describes an existing entry that clashes with a candidate booking.
type ScheduleConflict struct {
	EntryID     string            `json:"entry_id"`
	CourseID    string            `json:"course_id"`
	CourseCode  string            `json:"course_code,omitempty"`
	ProfessorID string            `json:"professor_id"`
	RoomID      string            `json:"room_id"`
	TimeSlotID  string            `json:"time_slot_id"`
	Day         Weekday           `json:"day"`
	StartTime   TimeOfDay         `json:"start_time"`
	EndTime     TimeOfDay         `json:"end_time"`
	Dimension   ConflictDimension `json:"dimension"`
	Message     string            `json:"message"`
}

// ScheduleConflictError is returned when a booking collides with existing entries.
type ScheduleConflictError struct {
	Type    string             `json:"type"`
	Message string             `json:"message"`
	Errors  []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
