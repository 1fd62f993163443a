package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes of the integrity violations callers tell apart.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsDuplicateKeyError(err error) bool { return hasCode(err, codeUniqueViolation) }

func IsForeignKeyError(err error) bool { return hasCode(err, codeForeignKeyViolation) }

func IsCheckViolationError(err error) bool { return hasCode(err, codeCheckViolation) }

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
