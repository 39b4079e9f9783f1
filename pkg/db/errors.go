package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// SQLSTATE classes surfaced by Postgres.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintError is what each driver tells us about a rejected write.
type constraintError struct {
	unique, foreignKey bool
	constraint         string
}

func classify(err error) (constraintError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return constraintError{
			unique:     pgErr.Code == pgUniqueViolation,
			foreignKey: pgErr.Code == pgForeignKeyViolation,
			constraint: pgErr.ConstraintName,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return constraintError{
			unique:     string(pqErr.Code) == pgUniqueViolation,
			foreignKey: string(pqErr.Code) == pgForeignKeyViolation,
			constraint: pqErr.Constraint,
		}, true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return constraintError{
			unique:     liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey,
			foreignKey: liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey,
			// sqlite names columns, not constraints.
			constraint: liteErr.Error(),
		}, true
	}
	return constraintError{}, false
}

// IsUniqueViolation reports whether err is a rejected duplicate. A non-empty
// constraintName narrows the match to that constraint (or, on sqlite, to a
// message naming it).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if ce, ok := classify(err); ok {
		return ce.unique && (constraintName == "" || strings.Contains(ce.constraint, constraintName))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return constraintName == "" || strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsForeignKeyViolation reports whether err is a write rejected by a foreign key.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if ce, ok := classify(err); ok {
		return ce.foreignKey
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
