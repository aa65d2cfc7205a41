// ABOUTME: Tests for lifecycle status resolution
// ABOUTME: Covers calendar-date boundaries around the alert window
package models

import (
	"testing"
	"time"
)

func TestResolveStatusBoundaries(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		endDate   time.Time
		alertDays int
		want      Status
	}{
		{"ends yesterday", now.AddDate(0, 0, -1), 60, StatusExpired},
		{"ends today", now, 60, StatusExpiringSoon},
		{"ends at alert window edge", now.AddDate(0, 0, 60), 60, StatusExpiringSoon},
		{"ends one day past window", now.AddDate(0, 0, 61), 60, StatusActive},
		{"ends far out", now.AddDate(1, 0, 0), 60, StatusActive},
		{"narrow window inside", now.AddDate(0, 0, 5), 5, StatusExpiringSoon},
		{"narrow window outside", now.AddDate(0, 0, 6), 5, StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.endDate, now, tt.alertDays)
			if got != tt.want {
				t.Errorf("ResolveStatus(%v) = %s, want %s", tt.endDate, got, tt.want)
			}
		})
	}
}

func TestResolveStatusIgnoresTimeOfDay(t *testing.T) {
	// An ata ending "today" is expiring_soon even when the clock has
	// already passed the end date's time of day.
	now := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	if got := ResolveStatus(end, now, 60); got != StatusExpiringSoon {
		t.Errorf("expected expiring_soon for same-day end date, got %s", got)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusExpired, StatusExpiringSoon, StatusActive} {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ValidStatus("cancelled") {
		t.Error("expected unknown status to be invalid")
	}
}

func TestSubtotalCents(t *testing.T) {
	item := AtaItem{Quantity: 3, UnitPriceCents: 150}
	if got := item.SubtotalCents(); got != 450 {
		t.Errorf("expected subtotal 450, got %d", got)
	}

	item = AtaItem{Quantity: 1, UnitPriceCents: 0}
	if got := item.SubtotalCents(); got != 0 {
		t.Errorf("expected subtotal 0, got %d", got)
	}
}
