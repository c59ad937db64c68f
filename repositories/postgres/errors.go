package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cogzy/cogzy-api/repositories"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE Postgres reports for unique constraint failures
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// wrapWriteError maps unique violations to repositories.ErrDuplicate
func wrapWriteError(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w: %v", op, repositories.ErrDuplicate, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// wrapReadError maps sql.ErrNoRows to repositories.ErrNotFound
func wrapReadError(entity string, key interface{}, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s not found: %v: %w", entity, key, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}
