// ABOUTME: Aggregate total maintenance for atas
// ABOUTME: Full-set recomputation inside the mutating transaction
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// recomputeTotal derives the ata total from the complete current item
// set. It never applies a delta, so retried or repeated invocations
// cannot accumulate drift.
func recomputeTotal(tx *sql.Tx, ataID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE atas SET
			total_cents = COALESCE((
				SELECT SUM(quantity * unit_price_cents)
				FROM ata_items WHERE ata_id = ?
			), 0),
			updated_at = ?
		WHERE id = ?
	`, ataID.String(), time.Now(), ataID.String())
	return err
}
