// ABOUTME: Supplier and supplier contact database operations
// ABOUTME: Guards supplier deletion while atas still reference it
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func CreateSupplier(db *sql.DB, supplier *models.Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	supplier.ID = uuid.New()
	now := time.Now()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO suppliers (id, name, cnpj, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, supplier.ID.String(), supplier.Name, nullable(supplier.CNPJ), nullable(supplier.Notes),
		supplier.CreatedAt, supplier.UpdatedAt)

	return translateError(err)
}

func GetSupplier(db *sql.DB, id uuid.UUID) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	var cnpj, notes sql.NullString

	err := db.QueryRow(`
		SELECT id, name, cnpj, notes, created_at, updated_at
		FROM suppliers WHERE id = ?
	`, id.String()).Scan(
		&supplier.ID, &supplier.Name, &cnpj, &notes,
		&supplier.CreatedAt, &supplier.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	supplier.CNPJ = cnpj.String
	supplier.Notes = notes.String
	return supplier, nil
}

// FindSupplierByCNPJ returns nil without error when no supplier matches,
// which lets importers fall through to creation.
func FindSupplierByCNPJ(db *sql.DB, cnpj string) (*models.Supplier, error) {
	rows, err := db.Query(`
		SELECT id, name, cnpj, notes, created_at, updated_at
		FROM suppliers WHERE cnpj = ? LIMIT 1
	`, cnpj)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers, err := scanSuppliers(rows)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, nil
	}
	return &suppliers[0], nil
}

func FindSupplierByName(db *sql.DB, name string) (*models.Supplier, error) {
	rows, err := db.Query(`
		SELECT id, name, cnpj, notes, created_at, updated_at
		FROM suppliers WHERE LOWER(name) = LOWER(?) LIMIT 1
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers, err := scanSuppliers(rows)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, nil
	}
	return &suppliers[0], nil
}

func FindSuppliers(db *sql.DB, query string, limit int) ([]models.Supplier, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		rows, err = db.Query(`
			SELECT id, name, cnpj, notes, created_at, updated_at
			FROM suppliers
			WHERE LOWER(name) LIKE ? OR cnpj LIKE ?
			ORDER BY name
			LIMIT ?
		`, pattern, pattern, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, name, cnpj, notes, created_at, updated_at
			FROM suppliers
			ORDER BY name
			LIMIT ?
		`, limit)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSuppliers(rows)
}

func UpdateSupplier(db *sql.DB, supplier *models.Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	supplier.UpdatedAt = time.Now()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE suppliers
		SET name = ?, cnpj = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, supplier.Name, nullable(supplier.CNPJ), nullable(supplier.Notes),
		supplier.UpdatedAt, supplier.ID.String())
	if err != nil {
		return translateError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("supplier %s: %w", supplier.ID, ErrNotFound)
	}

	// A renamed supplier invalidates the supplier_name field of every
	// search document for its atas.
	if err := rebuildSearchDocsForSupplier(tx, supplier.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteSupplier removes a supplier and its contact points. The delete is
// rejected while any ata still references the supplier; the schema forbids
// cascading supplier deletion into atas.
func DeleteSupplier(db *sql.DB, id uuid.UUID) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var refs int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM atas WHERE supplier_id = ?`, id.String()).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: supplier %s is referenced by %d ata(s)", ErrReferentialIntegrity, id, refs)
	}

	result, err := tx.Exec(`DELETE FROM suppliers WHERE id = ?`, id.String())
	if err != nil {
		return translateError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

func AddSupplierContact(db *sql.DB, contact *models.SupplierContact) error {
	if contact.Type == "" || contact.Value == "" {
		return fmt.Errorf("%w: contact type and value are required", ErrValidation)
	}

	contact.ID = uuid.New()

	_, err := db.Exec(`
		INSERT INTO supplier_contacts (id, supplier_id, type, value, label)
		VALUES (?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.SupplierID.String(), contact.Type, contact.Value,
		nullable(contact.Label))

	return translateError(err)
}

func ListSupplierContacts(db *sql.DB, supplierID uuid.UUID) ([]models.SupplierContact, error) {
	rows, err := db.Query(`
		SELECT id, supplier_id, type, value, label
		FROM supplier_contacts
		WHERE supplier_id = ?
		ORDER BY rowid
	`, supplierID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.SupplierContact
	for rows.Next() {
		var c models.SupplierContact
		var label sql.NullString
		if err := rows.Scan(&c.ID, &c.SupplierID, &c.Type, &c.Value, &label); err != nil {
			return nil, err
		}
		c.Label = label.String
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func DeleteSupplierContact(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM supplier_contacts WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("supplier contact %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanSuppliers(rows *sql.Rows) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	for rows.Next() {
		var s models.Supplier
		var cnpj, notes sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &cnpj, &notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.CNPJ = cnpj.String
		s.Notes = notes.String
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
