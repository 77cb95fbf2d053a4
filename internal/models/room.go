package models

import (
	"fmt"
	"strings"
	"time"
)

// RoomType classifies teaching spaces.
type RoomType string

const (
	RoomTypeLecture RoomType = "LECTURE"
	RoomTypeLab     RoomType = "LAB"
	RoomTypeSeminar RoomType = "SEMINAR"
	RoomTypeOther   RoomType = "OTHER"
)

// ParseRoomType maps free-form labels such as "Lecture Hall" or "Seminar Room" to a RoomType.
func ParseRoomType(raw string) (RoomType, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case value == "":
		return RoomTypeOther, nil
	case strings.HasPrefix(value, "LECTURE"):
		return RoomTypeLecture, nil
	case strings.HasPrefix(value, "LAB"):
		return RoomTypeLab, nil
	case strings.HasPrefix(value, "SEMINAR"):
		return RoomTypeSeminar, nil
	case value == string(RoomTypeOther):
		return RoomTypeOther, nil
	}
	return "", fmt.Errorf("unknown room type %q", raw)
}

// Room is a bookable teaching space.
type Room struct {
	ID         string    `db:"id" json:"id"`
	RoomNumber string    `db:"room_number" json:"room_number"`
	Name       string    `db:"name" json:"name"`
	Type       RoomType  `db:"room_type" json:"type"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Building   string    `db:"building" json:"building"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
