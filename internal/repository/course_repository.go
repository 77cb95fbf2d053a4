package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const courseColumns = "id, code, name, department, credits, enrolled_students, created_at, updated_at"

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching filters along with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, int, error) {
	base, args := catalogWhere("courses", filter, "code", "name")
	filter = filter.Normalize()

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", courseColumns, base, filter.PageSize, filter.Offset())
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListAll returns every course ordered by code.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY code ASC"); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks whether a course code is already registered.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM courses WHERE UPPER(code) = UPPER($1) LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course record. A duplicate code yields ErrConflict.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, code, name, department, credits, enrolled_students, created_at, updated_at)
		VALUES (:id, :code, :name, :department, :credits, :enrolled_students, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return conflictOnDuplicate(fmt.Errorf("create course: %w", err), "course code already exists")
	}
	return nil
}

// UpdateEnrollment sets the enrolled student count.
func (r *CourseRepository) UpdateEnrollment(ctx context.Context, id string, enrolled int) error {
	const query = `UPDATE courses SET enrolled_students = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, enrolled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course enrollment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// catalogWhere builds the shared FROM/WHERE clause for master data listings.
func catalogWhere(table string, filter models.CatalogFilter, searchColumns ...string) (string, []interface{}) {
	base := "FROM " + table + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" && len(searchColumns) > 0 {
		search := "%" + strings.ToLower(filter.Search) + "%"
		clauses := make([]string, len(searchColumns))
		for i, column := range searchColumns {
			clauses[i] = fmt.Sprintf("LOWER(%s) LIKE $%d", column, len(args)+1)
		}
		conditions = append(conditions, "("+strings.Join(clauses, " OR ")+")")
		args = append(args, search)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	return base, args
}
