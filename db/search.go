// ABOUTME: Search index synchronization and substring queries
// ABOUTME: Rebuilds the whole per-ata document from current source rows
package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

// rebuildSearchDoc recomputes the full search document for one ata from
// the current normalized rows. It never patches individual fields, so a
// retried or repeated rebuild always converges to the same document.
// Item descriptions are joined in insertion (rowid) order.
func rebuildSearchDoc(tx *sql.Tx, ataID uuid.UUID) error {
	_, err := tx.Exec(`
		INSERT INTO ata_search (ata_id, number, description, supplier_name, items_text)
		SELECT a.id, a.number, a.description, s.name,
			COALESCE((
				SELECT GROUP_CONCAT(description, ' ') FROM (
					SELECT description FROM ata_items WHERE ata_id = a.id ORDER BY rowid
				)
			), '')
		FROM atas a
		JOIN suppliers s ON s.id = a.supplier_id
		WHERE a.id = ?
		ON CONFLICT(ata_id) DO UPDATE SET
			number = excluded.number,
			description = excluded.description,
			supplier_name = excluded.supplier_name,
			items_text = excluded.items_text
	`, ataID.String())
	return err
}

// rebuildSearchDocsForSupplier refreshes the documents of every ata owned
// by the supplier, used when the supplier display name changes.
func rebuildSearchDocsForSupplier(tx *sql.Tx, supplierID uuid.UUID) error {
	rows, err := tx.Query(`SELECT id FROM atas WHERE supplier_id = ?`, supplierID.String())
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := rebuildSearchDoc(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func deleteSearchDoc(tx *sql.Tx, ataID uuid.UUID) error {
	_, err := tx.Exec(`DELETE FROM ata_search WHERE ata_id = ?`, ataID.String())
	return err
}

// GetSearchDoc reads the stored search document for an ata.
func GetSearchDoc(db *sql.DB, ataID uuid.UUID) (*models.SearchDoc, error) {
	doc := &models.SearchDoc{}

	err := db.QueryRow(`
		SELECT ata_id, number, description, supplier_name, items_text
		FROM ata_search WHERE ata_id = ?
	`, ataID.String()).Scan(&doc.AtaID, &doc.Number, &doc.Description, &doc.SupplierName, &doc.ItemsText)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("search document for ata %s: %w", ataID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// SearchAtas returns atas whose search document matches the term as a
// case-insensitive substring of any document field.
func SearchAtas(db *sql.DB, term string, limit int) ([]models.Ata, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(term) + "%"

	rows, err := db.Query(`
		SELECT a.id, a.number, a.ref_code, a.description, a.supplier_id,
		       a.start_date, a.end_date, a.total_cents, a.created_at, a.updated_at
		FROM atas a
		JOIN ata_search d ON d.ata_id = a.id
		WHERE LOWER(d.number) LIKE ?
		   OR LOWER(d.description) LIKE ?
		   OR LOWER(d.supplier_name) LIKE ?
		   OR LOWER(d.items_text) LIKE ?
		ORDER BY a.end_date
		LIMIT ?
	`, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAtas(rows)
}

// Reindex rebuilds every search document and recomputes every total from
// the normalized rows in one transaction. Normal operation keeps both in
// sync; this exists for recovery after external edits to the database.
func Reindex(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ata_search`); err != nil {
		return err
	}

	rows, err := tx.Query(`SELECT id FROM atas`)
	if err != nil {
		return err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range ids {
		if err := recomputeTotal(tx, id); err != nil {
			return err
		}
		if err := rebuildSearchDoc(tx, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}
