package scheduling

import (
	"errors"
	"math"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ErrNoRoom is returned when no room satisfies both capacity and availability.
var ErrNoRoom = errors.New("no suitable room available")

// RoomAvailability answers whether a room is free in a slot. Both ScheduleIndex and
// IndexTx satisfy it, so allocation can run inside or outside an Update.
type RoomAvailability interface {
	IsRoomAvailable(roomID string, slot models.TimeSlot) bool
}

// RoomAllocator picks the smallest free room that fits a class.
type RoomAllocator struct {
	avail RoomAvailability
}

// NewRoomAllocator builds an allocator over the given availability source.
func NewRoomAllocator(avail RoomAvailability) *RoomAllocator {
	return &RoomAllocator{avail: avail}
}

// Available returns rooms free during slot ordered by capacity then id.
func (a *RoomAllocator) Available(rooms []models.Room, slot models.TimeSlot) []models.Room {
	result := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if a.avail.IsRoomAvailable(room.ID, slot) {
			result = append(result, room)
		}
	}
	sortRooms(result)
	return result
}

// Allocate returns the minimum-capacity room with capacity >= required that is free
// during slot. Ties go to the lowest id.
func (a *RoomAllocator) Allocate(rooms []models.Room, required int, slot models.TimeSlot) (models.Room, error) {
	var (
		best  models.Room
		found bool
	)
	for _, room := range rooms {
		if room.Capacity < required {
			continue
		}
		if found && !roomLess(room, best) {
			continue
		}
		if !a.avail.IsRoomAvailable(room.ID, slot) {
			continue
		}
		best, found = room, true
	}
	if !found {
		return models.Room{}, ErrNoRoom
	}
	return best, nil
}

// AllocatePreferring tries rooms of the preferred type first and falls back to any room.
func (a *RoomAllocator) AllocatePreferring(rooms []models.Room, required int, preferred models.RoomType, slot models.TimeSlot) (models.Room, error) {
	if preferred != "" {
		typed := make([]models.Room, 0, len(rooms))
		for _, room := range rooms {
			if room.Type == preferred {
				typed = append(typed, room)
			}
		}
		if room, err := a.Allocate(typed, required, slot); err == nil {
			return room, nil
		}
	}
	return a.Allocate(rooms, required, slot)
}

// Utilization returns enrolled/capacity as a percentage rounded to one decimal.
func Utilization(enrolled int, room models.Room) float64 {
	if room.Capacity <= 0 {
		return 0
	}
	return math.Round(float64(enrolled)/float64(room.Capacity)*1000) / 10
}

func roomLess(a, b models.Room) bool {
	if a.Capacity != b.Capacity {
		return a.Capacity < b.Capacity
	}
	return a.ID < b.ID
}

func sortRooms(rooms []models.Room) {
	sort.Slice(rooms, func(i, j int) bool { return roomLess(rooms[i], rooms[j]) })
}
