package models

import "time"

// Professor teaches scheduled courses.
type Professor struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Email      *string   `db:"email" json:"email,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
