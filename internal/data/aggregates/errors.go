package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/domain"
)

// MapError maps storage failures into domain error codes. Errors that
// already carry a code pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *domain.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Wrap(domain.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.CodeStorage, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domain.Wrap(domain.CodeConflict, op, err) // unique_violation
		case "23503":
			return domain.Wrap(domain.CodePreconditionFailed, op, err) // foreign_key_violation
		case "22000", "22P02":
			return domain.Wrap(domain.CodeValidation, op, err) // data_exception, e.g. vector dimension mismatch
		}
		return domain.Wrap(domain.CodeStorage, op, err)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint failed"):
		return domain.Wrap(domain.CodeConflict, op, err)
	default:
		return domain.Wrap(domain.CodeStorage, op, err)
	}
}
