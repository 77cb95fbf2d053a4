package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "department", "credits", "enrolled_students", "created_at", "updated_at"}).
		AddRow("C1", "CS701", "Advanced Algorithms", "Computer Science", 4, 48, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, department, credits, enrolled_students, created_at, updated_at FROM courses WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1) ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WithArgs("%cs7%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1)")).
		WithArgs("%cs7%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CatalogFilter{Search: "CS7"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 48, list[0].EnrolledStudents)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAndExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "CS101", "Intro", "Computer Science", 3, 40, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Code: "CS101", Name: "Intro", Department: "Computer Science", Credits: 3, EnrolledStudents: 40}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM courses WHERE UPPER(code) = UPPER($1) LIMIT 1")).
		WithArgs("cs101").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	exists, err := repo.ExistsByCode(context.Background(), "cs101")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM courses WHERE UPPER(code) = UPPER($1) LIMIT 1")).
		WithArgs("MATH1").
		WillReturnError(sql.ErrNoRows)
	exists, err = repo.ExistsByCode(context.Background(), "MATH1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateEnrollmentMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET enrolled_students").
		WithArgs("missing", 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEnrollment(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateDuplicateCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "courses_code_upper_idx"`})

	err := repo.Create(context.Background(), &models.Course{Code: "CS101", Name: "Intro"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, appErrors.ErrConflict.Status, appErrors.FromError(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateOtherFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnError(&pq.Error{Code: "23502", Message: "null value"})

	err := repo.Create(context.Background(), &models.Course{Code: "CS101"})
	require.Error(t, err)
	assert.False(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
