// ABOUTME: Import provenance tracking for external data sources
// ABOUTME: Maps source control numbers to locally created entities
package db

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ImportRecord links an entity created by an importer back to its source
// identifier, so repeated runs can skip already-imported records.
type ImportRecord struct {
	ID         string
	Source     string
	SourceID   string
	EntityType string
	EntityID   uuid.UUID
	ImportedAt time.Time
}

// Source constants.
const (
	ImportSourcePNCP = "pncp"
)

// Entity type constants.
const (
	ImportEntityAta      = "ata"
	ImportEntitySupplier = "supplier"
)

// NewImportID generates a lexicographically sortable import record id.
func NewImportID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func RecordImport(db *sql.DB, record *ImportRecord) error {
	if record.ID == "" {
		record.ID = NewImportID()
	}
	record.ImportedAt = time.Now()

	_, err := db.Exec(`
		INSERT INTO import_log (id, source, source_id, entity_type, entity_id, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, record.Source, record.SourceID, record.EntityType,
		record.EntityID.String(), record.ImportedAt)

	return translateError(err)
}

// FindImport returns nil without error when the source id has not been
// imported yet.
func FindImport(db *sql.DB, source, sourceID string) (*ImportRecord, error) {
	record := &ImportRecord{}

	err := db.QueryRow(`
		SELECT id, source, source_id, entity_type, entity_id, imported_at
		FROM import_log
		WHERE source = ? AND source_id = ?
	`, source, sourceID).Scan(
		&record.ID, &record.Source, &record.SourceID,
		&record.EntityType, &record.EntityID, &record.ImportedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up import record: %w", err)
	}

	return record, nil
}

// ListImports returns import records for a source, newest first.
func ListImports(db *sql.DB, source string, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, source, source_id, entity_type, entity_id, imported_at
		FROM import_log
		WHERE source = ?
		ORDER BY imported_at DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.SourceID, &r.EntityType, &r.EntityID, &r.ImportedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
