// ABOUTME: Ata (price-registration contract) database operations
// ABOUTME: Mutations carry total recompute and search rebuild in one transaction
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func validateAta(ata *models.Ata) error {
	if strings.TrimSpace(ata.Number) == "" {
		return fmt.Errorf("%w: ata number is required", ErrValidation)
	}
	if strings.TrimSpace(ata.Description) == "" {
		return fmt.Errorf("%w: ata description is required", ErrValidation)
	}
	if ata.EndDate.Before(ata.StartDate) {
		return fmt.Errorf("%w: end date %s precedes start date %s",
			ErrValidation, ata.EndDate.Format("2006-01-02"), ata.StartDate.Format("2006-01-02"))
	}
	return nil
}

// CreateAta inserts an ata together with any initial items and contact
// points. The total and the search document are computed before commit,
// so no reader ever observes the ata without them.
func CreateAta(db *sql.DB, ata *models.Ata, items []models.AtaItem, contacts []models.AtaContact) error {
	if err := validateAta(ata); err != nil {
		return err
	}
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return err
		}
	}

	ata.ID = uuid.New()
	now := time.Now()
	ata.CreatedAt = now
	ata.UpdatedAt = now

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM suppliers WHERE id = ?`, ata.SupplierID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: supplier %s does not exist", ErrReferentialIntegrity, ata.SupplierID)
	}

	_, err = tx.Exec(`
		INSERT INTO atas (id, number, ref_code, description, supplier_id, start_date, end_date, total_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, ata.ID.String(), ata.Number, nullable(ata.RefCode), ata.Description,
		ata.SupplierID.String(), ata.StartDate, ata.EndDate, ata.CreatedAt, ata.UpdatedAt)
	if err != nil {
		return translateError(err)
	}

	for i := range items {
		items[i].ID = uuid.New()
		items[i].AtaID = ata.ID
		if err := insertItem(tx, &items[i]); err != nil {
			return err
		}
	}

	for i := range contacts {
		contacts[i].ID = uuid.New()
		contacts[i].AtaID = ata.ID
		if err := insertAtaContact(tx, &contacts[i]); err != nil {
			return err
		}
	}

	if err := recomputeTotal(tx, ata.ID); err != nil {
		return err
	}
	if err := rebuildSearchDoc(tx, ata.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateError(err)
	}

	ata.TotalCents = 0
	for i := range items {
		ata.TotalCents += items[i].SubtotalCents()
	}
	return nil
}

func GetAta(db *sql.DB, id uuid.UUID) (*models.Ata, error) {
	return getAtaWhere(db, "id = ?", id.String())
}

func GetAtaByNumber(db *sql.DB, number string) (*models.Ata, error) {
	return getAtaWhere(db, "number = ?", number)
}

func getAtaWhere(db *sql.DB, where string, arg interface{}) (*models.Ata, error) {
	ata := &models.Ata{}
	var refCode sql.NullString

	err := db.QueryRow(`
		SELECT id, number, ref_code, description, supplier_id, start_date, end_date, total_cents, created_at, updated_at
		FROM atas WHERE `+where, arg).Scan(
		&ata.ID, &ata.Number, &refCode, &ata.Description, &ata.SupplierID,
		&ata.StartDate, &ata.EndDate, &ata.TotalCents, &ata.CreatedAt, &ata.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ata %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	ata.RefCode = refCode.String
	return ata, nil
}

// GetAtaDetail reads an ata with its supplier, items, contact points and
// attachments.
func GetAtaDetail(db *sql.DB, id uuid.UUID) (*models.AtaDetail, error) {
	ata, err := GetAta(db, id)
	if err != nil {
		return nil, err
	}

	supplier, err := GetSupplier(db, ata.SupplierID)
	if err != nil {
		return nil, err
	}

	items, err := ListAtaItems(db, id)
	if err != nil {
		return nil, err
	}

	contacts, err := ListAtaContacts(db, id)
	if err != nil {
		return nil, err
	}

	attachments, err := ListAttachments(db, id)
	if err != nil {
		return nil, err
	}

	return &models.AtaDetail{
		Ata:         *ata,
		Supplier:    *supplier,
		Items:       items,
		Contacts:    contacts,
		Attachments: attachments,
	}, nil
}

// UpdateAta rewrites the ata's own fields and refreshes its search
// document in the same transaction. Items are managed separately.
func UpdateAta(db *sql.DB, ata *models.Ata) error {
	if err := validateAta(ata); err != nil {
		return err
	}

	ata.UpdatedAt = time.Now()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM suppliers WHERE id = ?`, ata.SupplierID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: supplier %s does not exist", ErrReferentialIntegrity, ata.SupplierID)
	}

	result, err := tx.Exec(`
		UPDATE atas
		SET number = ?, ref_code = ?, description = ?, supplier_id = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`, ata.Number, nullable(ata.RefCode), ata.Description, ata.SupplierID.String(),
		ata.StartDate, ata.EndDate, ata.UpdatedAt, ata.ID.String())
	if err != nil {
		return translateError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ata %s: %w", ata.ID, ErrNotFound)
	}

	if err := rebuildSearchDoc(tx, ata.ID); err != nil {
		return err
	}

	return translateError(tx.Commit())
}

// DeleteAta removes an ata; items, contact points and attachments go with
// it via the schema cascade, and the search document is removed in the
// same transaction.
func DeleteAta(db *sql.DB, id uuid.UUID) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM atas WHERE id = ?`, id.String())
	if err != nil {
		return translateError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ata %s: %w", id, ErrNotFound)
	}

	if err := deleteSearchDoc(tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

// FindAtasOptions narrows FindAtas. Status filtering happens in Go after
// the read because status is never persisted.
type FindAtasOptions struct {
	Search     string
	SupplierID *uuid.UUID
	Status     models.Status
	AlertDays  int
	Now        time.Time
	Limit      int
}

func FindAtas(db *sql.DB, opts FindAtasOptions) ([]models.Ata, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.AlertDays <= 0 {
		opts.AlertDays = AlertDays(db)
	}

	query := `
		SELECT a.id, a.number, a.ref_code, a.description, a.supplier_id,
		       a.start_date, a.end_date, a.total_cents, a.created_at, a.updated_at
		FROM atas a`
	var conds []string
	var args []interface{}

	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		query += ` JOIN ata_search d ON d.ata_id = a.id`
		conds = append(conds, `(LOWER(d.number) LIKE ? OR LOWER(d.description) LIKE ? OR LOWER(d.supplier_name) LIKE ? OR LOWER(d.items_text) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if opts.SupplierID != nil {
		conds = append(conds, `a.supplier_id = ?`)
		args = append(args, opts.SupplierID.String())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY a.end_date`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	atas, err := scanAtas(rows)
	if err != nil {
		return nil, err
	}

	if opts.Status != "" {
		filtered := atas[:0]
		for _, a := range atas {
			if models.ResolveStatus(a.EndDate, opts.Now, opts.AlertDays) == opts.Status {
				filtered = append(filtered, a)
			}
		}
		atas = filtered
	}

	if len(atas) > opts.Limit {
		atas = atas[:opts.Limit]
	}
	return atas, nil
}

func AddAtaContact(db *sql.DB, contact *models.AtaContact) error {
	if contact.Type == "" || contact.Value == "" {
		return fmt.Errorf("%w: contact type and value are required", ErrValidation)
	}

	contact.ID = uuid.New()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAtaContact(tx, contact); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAtaContact(tx *sql.Tx, contact *models.AtaContact) error {
	_, err := tx.Exec(`
		INSERT INTO ata_contacts (id, ata_id, type, value, label)
		VALUES (?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.AtaID.String(), contact.Type, contact.Value,
		nullable(contact.Label))
	return translateError(err)
}

func ListAtaContacts(db *sql.DB, ataID uuid.UUID) ([]models.AtaContact, error) {
	rows, err := db.Query(`
		SELECT id, ata_id, type, value, label
		FROM ata_contacts
		WHERE ata_id = ?
		ORDER BY rowid
	`, ataID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.AtaContact
	for rows.Next() {
		var c models.AtaContact
		var label sql.NullString
		if err := rows.Scan(&c.ID, &c.AtaID, &c.Type, &c.Value, &label); err != nil {
			return nil, err
		}
		c.Label = label.String
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func DeleteAtaContact(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM ata_contacts WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ata contact %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanAtas(rows *sql.Rows) ([]models.Ata, error) {
	var atas []models.Ata
	for rows.Next() {
		var a models.Ata
		var refCode sql.NullString
		if err := rows.Scan(&a.ID, &a.Number, &refCode, &a.Description, &a.SupplierID,
			&a.StartDate, &a.EndDate, &a.TotalCents, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.RefCode = refCode.String
		atas = append(atas, a)
	}
	return atas, rows.Err()
}
