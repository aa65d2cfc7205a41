// ABOUTME: Key-value configuration storage
// ABOUTME: Provides the alert-window setting with a safe fallback
package db

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/rmbastos/atadesk/models"
)

// ParamAlertDays is the config key for the expiring-soon window length.
const ParamAlertDays = "alert_days"

func SetParam(db *sql.DB, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: config key is required", ErrValidation)
	}

	_, err := db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func GetParam(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("config key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// AlertDays reads the alert window from config. A missing or malformed
// entry falls back to the default instead of failing; status resolution
// must never break because of a bad config row.
func AlertDays(db *sql.DB) int {
	value, err := GetParam(db, ParamAlertDays)
	if err != nil {
		return models.DefaultAlertDays
	}

	days, err := strconv.Atoi(value)
	if err != nil || days < 0 {
		return models.DefaultAlertDays
	}
	return days
}
