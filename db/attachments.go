// ABOUTME: Attachment metadata database operations
// ABOUTME: Bytes live in an external file store; only path and hash are kept
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func AddAttachment(db *sql.DB, att *models.Attachment) error {
	if att.Name == "" || att.Path == "" {
		return fmt.Errorf("%w: attachment name and path are required", ErrValidation)
	}

	att.ID = uuid.New()
	att.CreatedAt = time.Now()

	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM atas WHERE id = ?`, att.AtaID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: ata %s does not exist", ErrReferentialIntegrity, att.AtaID)
	}

	_, err = db.Exec(`
		INSERT INTO attachments (id, ata_id, kind, name, path, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, att.ID.String(), att.AtaID.String(), nullable(att.Kind), att.Name, att.Path,
		nullable(att.Hash), att.CreatedAt)

	return translateError(err)
}

func GetAttachment(db *sql.DB, id uuid.UUID) (*models.Attachment, error) {
	att := &models.Attachment{}
	var kind, hash sql.NullString

	err := db.QueryRow(`
		SELECT id, ata_id, kind, name, path, hash, created_at
		FROM attachments WHERE id = ?
	`, id.String()).Scan(&att.ID, &att.AtaID, &kind, &att.Name, &att.Path, &hash, &att.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attachment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	att.Kind = kind.String
	att.Hash = hash.String
	return att, nil
}

func ListAttachments(db *sql.DB, ataID uuid.UUID) ([]models.Attachment, error) {
	rows, err := db.Query(`
		SELECT id, ata_id, kind, name, path, hash, created_at
		FROM attachments
		WHERE ata_id = ?
		ORDER BY created_at
	`, ataID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		var kind, hash sql.NullString
		if err := rows.Scan(&a.ID, &a.AtaID, &kind, &a.Name, &a.Path, &hash, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = kind.String
		a.Hash = hash.String
		attachments = append(attachments, a)
	}

	return attachments, rows.Err()
}

func DeleteAttachment(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM attachments WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("attachment %s: %w", id, ErrNotFound)
	}
	return nil
}
