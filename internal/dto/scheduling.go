package dto

import "github.com/noah-isme/timetable-api/internal/models"

// BookingState tracks how far a schedule request progressed.
type BookingState string

const (
	BookingReceived        BookingState = "RECEIVED"
	BookingValidated       BookingState = "VALIDATED"
	BookingConflictChecked BookingState = "CONFLICT_CHECKED"
	BookingAllocated       BookingState = "ALLOCATED"
	BookingCommitted       BookingState = "COMMITTED"
	BookingRejected        BookingState = "REJECTED"
)

// ScheduleRequest books a course taught by a professor into a time slot.
type ScheduleRequest struct {
	CourseID          string `json:"courseId" validate:"required"`
	ProfessorID       string `json:"professorId" validate:"required"`
	TimeSlotID        string `json:"timeSlotId" validate:"required"`
	PreferredRoomType string `json:"preferredRoomType" validate:"omitempty,oneof=LECTURE LAB SEMINAR OTHER"`
}

// ScheduleResult is returned for a committed booking.
type ScheduleResult struct {
	Success          bool                 `json:"success"`
	State            BookingState         `json:"state"`
	Message          string               `json:"message"`
	Entry            models.ScheduleEntry `json:"entry"`
	Room             models.Room          `json:"room"`
	Utilization      float64              `json:"utilization"`
	UtilizationLabel string               `json:"utilizationLabel"`
	OverCapacity     bool                 `json:"overCapacity"`
}

// ScheduleRejection is attached to error details when a booking is refused.
type ScheduleRejection struct {
	Success    bool                      `json:"success"`
	State      BookingState              `json:"state"`
	RejectedAt BookingState              `json:"rejectedAt"`
	Conflicts  []models.ScheduleConflict `json:"conflicts,omitempty"`
	Suggestion string                    `json:"suggestion,omitempty"`
}

// DayScheduleQuery selects a single day or every day.
type DayScheduleQuery struct {
	Day string `form:"day" json:"day" validate:"required"`
}

// AvailableRoomsResponse lists free rooms for a slot.
type AvailableRoomsResponse struct {
	TimeSlot models.TimeSlot `json:"timeSlot"`
	Rooms    []models.Room   `json:"rooms"`
}

// EngineStats summarises the in-memory scheduling engine.
type EngineStats struct {
	Entries        int            `json:"entries"`
	EntriesByDay   map[string]int `json:"entriesByDay"`
	IndexHeight    int            `json:"indexHeight"`
	IndexVersion   uint64         `json:"indexVersion"`
	CourseKeys     int            `json:"courseKeys"`
	RoomKeys       int            `json:"roomKeys"`
	Rooms          int            `json:"rooms"`
	AvgUtilization float64        `json:"avgUtilization"`
}

// TimetableEvent is pushed to realtime subscribers.
type TimetableEvent struct {
	Type  string               `json:"type"`
	Entry models.ScheduleEntry `json:"entry"`
}

// ExportQuery narrows an export to a day, professor or room.
type ExportQuery struct {
	Day         string `form:"day"`
	ProfessorID string `form:"professorId"`
	RoomID      string `form:"roomId"`
}
