package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestAllocatePicksSmallestFittingRoom(t *testing.T) {
	ix := NewScheduleIndex()
	allocator := NewRoomAllocator(ix)
	rooms := []models.Room{
		{ID: "A", RoomNumber: "A", Capacity: 30},
		{ID: "B", RoomNumber: "B", Capacity: 50},
	}
	slot := slotAt("T1", models.Monday, "09:00", "10:00")

	room, err := allocator.Allocate(rooms, 40, slot)
	require.NoError(t, err)
	assert.Equal(t, "B", room.ID)

	ix.Insert(entryAt("E1", "P1", "B", slot))
	_, err = allocator.Allocate(rooms, 40, slot)
	assert.ErrorIs(t, err, ErrNoRoom)
}

func TestAllocateBreaksTiesByID(t *testing.T) {
	allocator := NewRoomAllocator(NewScheduleIndex())
	rooms := []models.Room{
		{ID: "R9", Capacity: 40},
		{ID: "R3", Capacity: 40},
		{ID: "R5", Capacity: 60},
	}
	room, err := allocator.Allocate(rooms, 35, slotAt("T1", models.Monday, "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "R3", room.ID)
}

func TestAllocatePreferringFallsBack(t *testing.T) {
	ix := NewScheduleIndex()
	allocator := NewRoomAllocator(ix)
	slot := slotAt("T1", models.Monday, "09:00", "10:00")
	rooms := []models.Room{
		{ID: "L1", Type: models.RoomTypeLab, Capacity: 32},
		{ID: "H1", Type: models.RoomTypeLecture, Capacity: 30},
		{ID: "H2", Type: models.RoomTypeLecture, Capacity: 60},
	}

	room, err := allocator.AllocatePreferring(rooms, 25, models.RoomTypeLab, slot)
	require.NoError(t, err)
	assert.Equal(t, "L1", room.ID)

	ix.Insert(entryAt("E1", "P1", "L1", slot))
	room, err = allocator.AllocatePreferring(rooms, 25, models.RoomTypeLab, slot)
	require.NoError(t, err)
	assert.Equal(t, "H1", room.ID)

	room, err = allocator.AllocatePreferring(rooms, 25, "", slot)
	require.NoError(t, err)
	assert.Equal(t, "H1", room.ID)
}

func TestAvailableSortedByCapacity(t *testing.T) {
	ix := NewScheduleIndex()
	slot := slotAt("T1", models.Monday, "09:00", "10:00")
	ix.Insert(entryAt("E1", "P1", "R2", slot))
	rooms := []models.Room{
		{ID: "R1", Capacity: 60},
		{ID: "R2", Capacity: 20},
		{ID: "R3", Capacity: 40},
	}

	available := NewRoomAllocator(ix).Available(rooms, slot)
	require.Len(t, available, 2)
	assert.Equal(t, "R3", available[0].ID)
	assert.Equal(t, "R1", available[1].ID)
}

func TestUtilization(t *testing.T) {
	assert.Equal(t, 80.0, Utilization(40, models.Room{Capacity: 50}))
	assert.Equal(t, 133.3, Utilization(40, models.Room{Capacity: 30}))
	assert.Zero(t, Utilization(10, models.Room{}))
}
