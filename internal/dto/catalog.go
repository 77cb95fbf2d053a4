package dto

// CreateCourseRequest registers a course.
type CreateCourseRequest struct {
	Code             string `json:"code" validate:"required,alphanum,max=16"`
	Name             string `json:"name" validate:"required,max=128"`
	Department       string `json:"department" validate:"required,max=64"`
	Credits          int    `json:"credits" validate:"min=0,max=12"`
	EnrolledStudents int    `json:"enrolledStudents" validate:"min=0"`
}

// UpdateEnrollmentRequest changes the enrolled student count of a course.
type UpdateEnrollmentRequest struct {
	EnrolledStudents *int `json:"enrolledStudents" validate:"required,min=0"`
}

// CreateProfessorRequest registers a professor.
type CreateProfessorRequest struct {
	Name       string  `json:"name" validate:"required,max=128"`
	Department string  `json:"department" validate:"required,max=64"`
	Email      *string `json:"email" validate:"omitempty,email"`
}

// CreateRoomRequest registers a room. Type accepts labels such as "Lecture Hall".
type CreateRoomRequest struct {
	RoomNumber string `json:"roomNumber" validate:"required,max=16"`
	Name       string `json:"name" validate:"max=128"`
	Type       string `json:"type"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	Building   string `json:"building" validate:"max=64"`
}

// CreateTimeSlotRequest registers a weekly slot.
type CreateTimeSlotRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// AutocompleteQuery carries a prefix lookup.
type AutocompleteQuery struct {
	Prefix string `form:"prefix" json:"prefix"`
	Limit  int    `form:"limit" json:"limit"`
}
