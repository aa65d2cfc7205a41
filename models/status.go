// ABOUTME: Lifecycle status resolution for atas
// ABOUTME: Pure calendar-date computation, never persisted
package models

import "time"

type Status string

const (
	StatusExpired      Status = "expired"
	StatusExpiringSoon Status = "expiring_soon"
	StatusActive       Status = "active"
)

// DefaultAlertDays is the expiring-soon window used when the config
// table has no usable alert_days entry.
const DefaultAlertDays = 60

// ResolveStatus derives the lifecycle status of an ata from its end date,
// the caller's clock, and the alert window in days. Comparison is by
// calendar date: an ata ending today is expiring_soon, not expired, and
// one ending exactly alertDays out is still expiring_soon.
func ResolveStatus(endDate, now time.Time, alertDays int) Status {
	end := dateOnly(endDate)
	today := dateOnly(now)

	if end.Before(today) {
		return StatusExpired
	}
	days := int(end.Sub(today).Hours() / 24)
	if days <= alertDays {
		return StatusExpiringSoon
	}
	return StatusActive
}

// ValidStatus reports whether s is one of the three known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusExpired, StatusExpiringSoon, StatusActive:
		return true
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
