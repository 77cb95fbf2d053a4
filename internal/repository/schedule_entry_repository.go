package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ScheduleEntryRepository stores committed entries so the index can be rebuilt on start-up.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository constructs a ScheduleEntryRepository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// ListAll returns persisted entries in insertion order.
func (r *ScheduleEntryRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, course_id, professor_id, room_id, time_slot_id, created_at FROM schedule_entries ORDER BY created_at ASC, id ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// Create persists an entry. Replaying the same entry is a no-op so retries are safe.
func (r *ScheduleEntryRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedule_entries (id, course_id, professor_id, room_id, time_slot_id, created_at)
		VALUES (:id, :course_id, :professor_id, :room_id, :time_slot_id, :created_at)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
