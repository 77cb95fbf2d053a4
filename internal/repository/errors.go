package repository

import (
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const pqUniqueViolation pq.ErrorCode = "23505"

// conflictOnDuplicate turns a Postgres unique violation into ErrConflict and passes
// anything else through.
func conflictOnDuplicate(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	}
	return err
}
