package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const timeSlotColumns = "id, day_of_week, start_time, end_time"

// TimeSlotRepository manages persistence for weekly time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListAll returns every slot in weekly order.
func (r *TimeSlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT ` + timeSlotColumns + ` FROM time_slots
		ORDER BY CASE day_of_week WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
		WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7 END, start_time, id`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// FindByID fetches a slot by ID.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, "SELECT "+timeSlotColumns+" FROM time_slots WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new slot.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	const query = `INSERT INTO time_slots (id, day_of_week, start_time, end_time)
		VALUES (:id, :day_of_week, :start_time, :end_time)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}
