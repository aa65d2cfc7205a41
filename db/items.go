// ABOUTME: Ata item database operations
// ABOUTME: Every item mutation recomputes the owning ata's total and search text
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func validateItem(item *models.AtaItem) error {
	if item.Description == "" {
		return fmt.Errorf("%w: item description is required", ErrValidation)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero, got %d", ErrValidation, item.Quantity)
	}
	if item.UnitPriceCents < 0 {
		return fmt.Errorf("%w: unit price must not be negative, got %d", ErrValidation, item.UnitPriceCents)
	}
	return nil
}

func insertItem(tx *sql.Tx, item *models.AtaItem) error {
	_, err := tx.Exec(`
		INSERT INTO ata_items (id, ata_id, description, quantity, unit_price_cents)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID.String(), item.AtaID.String(), item.Description, item.Quantity, item.UnitPriceCents)
	return translateError(err)
}

// AddAtaItem inserts an item and brings the owning ata's total and search
// document up to date before commit.
func AddAtaItem(db *sql.DB, item *models.AtaItem) error {
	if err := validateItem(item); err != nil {
		return err
	}

	item.ID = uuid.New()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM atas WHERE id = ?`, item.AtaID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: ata %s does not exist", ErrReferentialIntegrity, item.AtaID)
	}

	if err := insertItem(tx, item); err != nil {
		return err
	}
	if err := recomputeTotal(tx, item.AtaID); err != nil {
		return err
	}
	if err := rebuildSearchDoc(tx, item.AtaID); err != nil {
		return err
	}

	return tx.Commit()
}

func GetAtaItem(db *sql.DB, id uuid.UUID) (*models.AtaItem, error) {
	item := &models.AtaItem{}

	err := db.QueryRow(`
		SELECT id, ata_id, description, quantity, unit_price_cents
		FROM ata_items WHERE id = ?
	`, id.String()).Scan(&item.ID, &item.AtaID, &item.Description, &item.Quantity, &item.UnitPriceCents)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ata item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

// UpdateAtaItem rewrites an item's description, quantity and unit price.
// The subtotal is never written anywhere; it is always derived.
func UpdateAtaItem(db *sql.DB, item *models.AtaItem) error {
	if err := validateItem(item); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The owning ata comes from the stored row, not the caller's struct.
	var ataID uuid.UUID
	err = tx.QueryRow(`SELECT ata_id FROM ata_items WHERE id = ?`, item.ID.String()).Scan(&ataID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("ata item %s: %w", item.ID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE ata_items
		SET description = ?, quantity = ?, unit_price_cents = ?
		WHERE id = ?
	`, item.Description, item.Quantity, item.UnitPriceCents, item.ID.String())
	if err != nil {
		return translateError(err)
	}

	if err := recomputeTotal(tx, ataID); err != nil {
		return err
	}
	if err := rebuildSearchDoc(tx, ataID); err != nil {
		return err
	}

	item.AtaID = ataID
	return tx.Commit()
}

func DeleteAtaItem(db *sql.DB, id uuid.UUID) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ataID uuid.UUID
	err = tx.QueryRow(`SELECT ata_id FROM ata_items WHERE id = ?`, id.String()).Scan(&ataID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("ata item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM ata_items WHERE id = ?`, id.String()); err != nil {
		return err
	}

	if err := recomputeTotal(tx, ataID); err != nil {
		return err
	}
	if err := rebuildSearchDoc(tx, ataID); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceAtaItems swaps the full item set of an ata in one transaction,
// the bulk-edit path used when a whole ata is saved at once.
func ReplaceAtaItems(db *sql.DB, ataID uuid.UUID, items []models.AtaItem) error {
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM atas WHERE id = ?`, ataID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("ata %s: %w", ataID, ErrNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM ata_items WHERE ata_id = ?`, ataID.String()); err != nil {
		return err
	}

	for i := range items {
		items[i].ID = uuid.New()
		items[i].AtaID = ataID
		if err := insertItem(tx, &items[i]); err != nil {
			return err
		}
	}

	if err := recomputeTotal(tx, ataID); err != nil {
		return err
	}
	if err := rebuildSearchDoc(tx, ataID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListAtaItems returns an ata's items in insertion order, the same order
// the search document joins their descriptions.
func ListAtaItems(db *sql.DB, ataID uuid.UUID) ([]models.AtaItem, error) {
	rows, err := db.Query(`
		SELECT id, ata_id, description, quantity, unit_price_cents
		FROM ata_items
		WHERE ata_id = ?
		ORDER BY rowid
	`, ataID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.AtaItem
	for rows.Next() {
		var i models.AtaItem
		if err := rows.Scan(&i.ID, &i.AtaID, &i.Description, &i.Quantity, &i.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	return items, rows.Err()
}
