package models

import "time"

// Course is a catalog course. Only EnrolledStudents changes after creation.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	Department       string    `db:"department" json:"department"`
	Credits          int       `db:"credits" json:"credits"`
	EnrolledStudents int       `db:"enrolled_students" json:"enrolled_students"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
