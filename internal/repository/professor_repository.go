package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const professorColumns = "id, name, department, email, created_at"

// ProfessorRepository manages persistence for professors.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository constructs a ProfessorRepository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

// List returns professors matching filters along with total count.
func (r *ProfessorRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Professor, int, error) {
	base, args := catalogWhere("professors", filter, "name", "COALESCE(email, '')")
	filter = filter.Normalize()

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", professorColumns, base, filter.PageSize, filter.Offset())
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count professors: %w", err)
	}
	return professors, total, nil
}

// ListAll returns every professor ordered by name.
func (r *ProfessorRepository) ListAll(ctx context.Context) ([]models.Professor, error) {
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, "SELECT "+professorColumns+" FROM professors ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list all professors: %w", err)
	}
	return professors, nil
}

// FindByID fetches a professor by ID.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, "SELECT "+professorColumns+" FROM professors WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &professor, nil
}

// Create inserts a new professor record.
func (r *ProfessorRepository) Create(ctx context.Context, professor *models.Professor) error {
	if professor.ID == "" {
		professor.ID = uuid.NewString()
	}
	if professor.CreatedAt.IsZero() {
		professor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO professors (id, name, department, email, created_at)
		VALUES (:id, :name, :department, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("create professor: %w", err)
	}
	return nil
}
