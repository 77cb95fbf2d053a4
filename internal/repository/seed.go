package repository

import (
	"fmt"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SeedData is the sample catalog loaded when CATALOG_SEED is enabled.
type SeedData struct {
	Courses    []models.Course
	Professors []models.Professor
	Rooms      []models.Room
	TimeSlots  []models.TimeSlot
	Entries    []models.ScheduleEntry
}

// DefaultSeed returns the B.Tech year 3 sample catalog housed in Building 1.
func DefaultSeed() SeedData {
	const building = "Building 1"

	rooms := make([]models.Room, 0, 72)
	counter := 1
	for floor := 1; floor <= 7; floor++ {
		for room := 1; room <= 10; room++ {
			roomType, name := models.RoomTypeLecture, "Lecture Hall"
			if room%3 == 0 {
				roomType, name = models.RoomTypeSeminar, "Seminar Room"
			}
			rooms = append(rooms, models.Room{
				ID:         fmt.Sprintf("R%d", counter),
				RoomNumber: fmt.Sprintf("%d%02d", floor, room),
				Name:       name,
				Type:       roomType,
				Capacity:   35 + floor*3 + (room%4)*5,
				Building:   building,
			})
			counter++
		}
	}
	for _, number := range []string{"101A", "101B"} {
		rooms = append(rooms, models.Room{
			ID:         fmt.Sprintf("R%d", counter),
			RoomNumber: number,
			Name:       "Lab",
			Type:       models.RoomTypeLab,
			Capacity:   32,
			Building:   building,
		})
		counter++
	}

	courses := []models.Course{
		{ID: "C1", Code: "CS701", Name: "Advanced Algorithms", Credits: 4, Department: "Computer Science", EnrolledStudents: 48},
		{ID: "C2", Code: "CS702", Name: "Emerging Technologies (Theory)", Credits: 3, Department: "Computer Science", EnrolledStudents: 46},
		{ID: "C3", Code: "CS702L", Name: "Emerging Technologies Lab", Credits: 1, Department: "Computer Science", EnrolledStudents: 24},
		{ID: "C4", Code: "CS703", Name: "Numeric Optimization Techniques", Credits: 3, Department: "Computer Science", EnrolledStudents: 52},
		{ID: "C5", Code: "CS704", Name: "Cloud Application Development", Credits: 3, Department: "Computer Science", EnrolledStudents: 50},
		{ID: "C6", Code: "CS705", Name: "Natural Language Processing", Credits: 3, Department: "Computer Science", EnrolledStudents: 45},
		{ID: "C7", Code: "CS706", Name: "Computer Vision", Credits: 3, Department: "Computer Science", EnrolledStudents: 44},
	}

	professors := []models.Professor{
		professor("P1", "Prof. Nimesh Bumb", "Computer Science", "nimesh.bumb@university.edu"),
		professor("P2", "Prof. Sridhar Pappu", "Computer Vision", "sridhar.pappu@university.edu"),
		professor("P3", "Dr. Patil", "Emerging Technologies", "patil@university.edu"),
		professor("P4", "Prof. Pramod Bhide", "Emerging Technologies Lab", "pramod.bhide@university.edu"),
		professor("P5", "Prof. Naresh Kaushik", "Mathematics", "naresh.kaushik@university.edu"),
		professor("P6", "Dr. Sarah Johnson", "Cloud Computing", "sarah.johnson@university.edu"),
		professor("P7", "Dr. Emily Davis", "Natural Language Processing", "emily.davis@university.edu"),
	}

	slots := []models.TimeSlot{
		slot("T1", models.Monday, 9, 0),
		slot("T2", models.Monday, 11, 0),
		slot("T3", models.Monday, 14, 0),
		slot("T4", models.Tuesday, 9, 0),
		slot("T5", models.Tuesday, 11, 0),
		slot("T6", models.Wednesday, 9, 0),
		slot("T7", models.Wednesday, 14, 0),
		slot("T8", models.Thursday, 9, 0),
		slot("T9", models.Friday, 11, 0),
	}

	entries := []models.ScheduleEntry{
		{ID: "TE1", CourseID: "C1", ProfessorID: "P1", RoomID: "R1", TimeSlotID: "T1"},
		{ID: "TE2", CourseID: "C7", ProfessorID: "P2", RoomID: "R6", TimeSlotID: "T2"},
		{ID: "TE3", CourseID: "C2", ProfessorID: "P3", RoomID: "R11", TimeSlotID: "T3"},
		{ID: "TE4", CourseID: "C3", ProfessorID: "P4", RoomID: "R12", TimeSlotID: "T4"},
		{ID: "TE5", CourseID: "C4", ProfessorID: "P5", RoomID: "R3", TimeSlotID: "T5"},
		{ID: "TE6", CourseID: "C5", ProfessorID: "P6", RoomID: "R16", TimeSlotID: "T6"},
		{ID: "TE7", CourseID: "C6", ProfessorID: "P7", RoomID: "R21", TimeSlotID: "T7"},
	}

	return SeedData{Courses: courses, Professors: professors, Rooms: rooms, TimeSlots: slots, Entries: entries}
}

func professor(id, name, department, email string) models.Professor {
	return models.Professor{ID: id, Name: name, Department: department, Email: &email}
}

// slot builds a 90 minute teaching window.
func slot(id string, day models.Weekday, hour, minute int) models.TimeSlot {
	start := models.TimeOfDay(hour*60 + minute)
	return models.TimeSlot{ID: id, Day: day, StartTime: start, EndTime: start + 90}
}
