// ABOUTME: Error taxonomy for store mutations
// ABOUTME: Maps driver-level constraint failures onto caller-facing sentinels
package db

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a lookup targets a nonexistent id.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for caller-supplied invalid values:
	// quantity <= 0, unit price < 0, end date before start date.
	ErrValidation = errors.New("validation failed")

	// ErrConstraint is returned for uniqueness violations such as a
	// duplicate ata number or reference code.
	ErrConstraint = errors.New("constraint violation")

	// ErrReferentialIntegrity is returned when deleting a supplier that
	// atas still reference, or when a mutation names a missing owner.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// translateError rewrites sqlite constraint failures into the store's
// error taxonomy so callers can match with errors.Is.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrReferentialIntegrity, err)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	return err
}
