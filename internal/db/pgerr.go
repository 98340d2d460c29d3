package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRep      = "22P02"
)

// UniqueViolation reports whether err is a Postgres unique violation and,
// if so, the constraint that was hit.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func ForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// InvalidInput reports malformed literals such as a non-uuid id.
func InvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInvalidTextRep
}

// ConstraintField guesses the column behind a "<table>_<column>_key" constraint.
func ConstraintField(table, constraint string) string {
	field := strings.TrimPrefix(constraint, table+"_")
	field = strings.TrimSuffix(field, "_key")
	if field == "" || field == constraint {
		return "field"
	}
	return field
}
