package repository

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a requested row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint or a write precondition fails.
	ErrConflict = errors.New("conflict")
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// translate maps driver errors onto the repository sentinels and annotates everything else.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return errors.Wrapf(ErrConflict, "%s: %s", op, pqErr.Constraint)
		case foreignKeyViolation:
			return errors.Wrapf(ErrNotFound, "%s: %s", op, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, op)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
