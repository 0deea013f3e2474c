package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/youngchun/callforward/internal/errors"
)

var errNoRowReturned = errors.New("no row returned")

// wrapQueryErr maps sql.ErrNoRows to a not found error and everything else to a database error
func wrapQueryErr(err error, entity string, details map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHintf("Failed to read %s", entity).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func wrapWriteErr(err error, action string, details map[string]any) error {
	return ierr.WithError(err).
		WithHintf("Failed to %s", action).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
