package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint failures surfaced by the catalog stores. Callers match them with
// errors.Is or the Is* helpers below; HTTP handlers map them to status codes.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
)

// pgErrors maps Postgres SQLSTATE codes to the sentinels above.
var pgErrors = map[string]error{
	"23505": ErrDuplicateKey,
	"23503": ErrForeignKeyViolation,
	"23514": ErrCheckViolation,
}

// WrapError prefixes err with the store operation and translates no-rows and
// constraint errors into the package sentinels.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgErrors[pgErr.Code]; ok {
			return fmt.Errorf("%s: %w (constraint: %s)", operation, sentinel, pgErr.ConstraintName)
		}
		return fmt.Errorf("%s: database error [%s]: %w", operation, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateKey reports a unique constraint hit, such as two submitters
// racing on the same handle.
func IsDuplicateKey(err error) bool { return errors.Is(err, ErrDuplicateKey) }

// IsForeignKeyViolation reports a write that referenced a channel deleted
// underneath it.
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }

func IsCheckViolation(err error) bool { return errors.Is(err, ErrCheckViolation) }
