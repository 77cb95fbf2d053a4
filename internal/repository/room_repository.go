package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const roomColumns = "id, room_number, name, room_type, capacity, building, created_at"

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching filters along with total count. Department filters by building.
func (r *RoomRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Room, int, error) {
	building := filter.Department
	filter.Department = ""
	base, args := catalogWhere("rooms", filter, "room_number", "name")
	if building != "" {
		base += fmt.Sprintf(" AND LOWER(building) = LOWER($%d)", len(args)+1)
		args = append(args, building)
	}
	filter = filter.Normalize()

	query := fmt.Sprintf("SELECT %s %s ORDER BY room_number ASC LIMIT %d OFFSET %d", roomColumns, base, filter.PageSize, filter.Offset())
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// ListAll returns every room ordered by capacity then id, the allocator's scan order.
func (r *RoomRepository) ListAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, "SELECT "+roomColumns+" FROM rooms ORDER BY capacity ASC, id ASC"); err != nil {
		return nil, fmt.Errorf("list all rooms: %w", err)
	}
	return rooms, nil
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByRoomNumber checks whether a room number is already registered.
func (r *RoomRepository) ExistsByRoomNumber(ctx context.Context, number string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM rooms WHERE UPPER(room_number) = UPPER($1) LIMIT 1", number); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check room number: %w", err)
	}
	return true, nil
}

// Create inserts a new room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO rooms (id, room_number, name, room_type, capacity, building, created_at)
		VALUES (:id, :room_number, :name, :room_type, :capacity, :building, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return conflictOnDuplicate(fmt.Errorf("create room: %w", err), "room number already exists")
	}
	return nil
}
