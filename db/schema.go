// ABOUTME: Database schema definitions and initialization
// ABOUTME: Creates entity tables, the search index table, and default config
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	cnpj TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers(name);
CREATE INDEX IF NOT EXISTS idx_suppliers_cnpj ON suppliers(cnpj);

CREATE TABLE IF NOT EXISTS supplier_contacts (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL,
	type TEXT NOT NULL,
	value TEXT NOT NULL,
	label TEXT,
	FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_supplier_contacts_supplier ON supplier_contacts(supplier_id);

CREATE TABLE IF NOT EXISTS atas (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	ref_code TEXT UNIQUE,
	description TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	total_cents INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
);

CREATE INDEX IF NOT EXISTS idx_atas_supplier ON atas(supplier_id);
CREATE INDEX IF NOT EXISTS idx_atas_end_date ON atas(end_date);

CREATE TABLE IF NOT EXISTS ata_items (
	id TEXT PRIMARY KEY,
	ata_id TEXT NOT NULL,
	description TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK(quantity > 0),
	unit_price_cents INTEGER NOT NULL CHECK(unit_price_cents >= 0),
	FOREIGN KEY (ata_id) REFERENCES atas(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ata_items_ata ON ata_items(ata_id);

CREATE TABLE IF NOT EXISTS ata_contacts (
	id TEXT PRIMARY KEY,
	ata_id TEXT NOT NULL,
	type TEXT NOT NULL,
	value TEXT NOT NULL,
	label TEXT,
	FOREIGN KEY (ata_id) REFERENCES atas(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ata_contacts_ata ON ata_contacts(ata_id);

CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	ata_id TEXT NOT NULL,
	kind TEXT,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	hash TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (ata_id) REFERENCES atas(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attachments_ata ON attachments(ata_id);

CREATE TABLE IF NOT EXISTS ata_search (
	ata_id TEXT PRIMARY KEY,
	number TEXT NOT NULL,
	description TEXT NOT NULL,
	supplier_name TEXT NOT NULL,
	items_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_log (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	source_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(source, source_id)
);

CREATE INDEX IF NOT EXISTS idx_import_log_entity ON import_log(entity_type, entity_id);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	// Default alert window, only written once
	_, err := db.Exec(`INSERT OR IGNORE INTO config (key, value) VALUES (?, ?)`,
		ParamAlertDays, "60")
	return err
}
