package dates

import (
	"testing"
	"time"
)

// Wednesday afternoon.
var fixedNow = time.Date(2025, 6, 11, 15, 30, 0, 0, time.Local)

func newTestResolver() *Resolver {
	return NewResolver(WithClock(func() time.Time { return fixedNow }))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		want         string
		explicitYear bool
		ok           bool
	}{
		{"iso date", "rooms on 2025-06-10?", "2025-06-10", true, true},
		{"iso single digits", "2026-1-5", "2026-01-05", true, true},
		{"iso invalid does not fall through", "2025-02-30 or tomorrow", "", false, false},
		{"day after tomorrow", "the Day After Tomorrow", "2025-06-13", false, true},
		{"tomorrow", "anything free tomorrow night", "2025-06-12", false, true},
		{"today", "today", "2025-06-11", false, true},
		{"relative beats weekday", "today or friday", "2025-06-11", false, true},
		{"day of month", "the 10th of June", "2025-06-10", false, true},
		{"day month year", "5 sept 2026", "2026-09-05", true, true},
		{"month day", "June 10", "2025-06-10", false, true},
		{"month day year", "is anything available June 10 2025", "2025-06-10", true, true},
		{"abbreviated month", "dec 24th", "2025-12-24", false, true},
		{"leap day", "29 feb 2024", "2024-02-29", true, true},
		{"invalid day", "31 june", "", false, false},
		{"invalid leap day", "feb 29 2025", "", false, false},
		{"bare weekday today", "wednesday", "2025-06-11", false, true},
		{"this weekday", "this friday", "2025-06-13", false, true},
		{"next weekday", "next friday", "2025-06-13", false, true},
		{"next same weekday", "next Wednesday", "2025-06-18", false, true},
		{"weekday wraps", "any twin on monday", "2025-06-16", false, true},
		{"sunday", "sunday", "2025-06-15", false, true},
		{"no date", "do you have a queen room", "", false, false},
		{"may is not a date alone", "may I book a room", "", false, false},
		{"empty", "  ", "", false, false},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.text)
			if ok != tt.ok {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if !ok {
				return
			}
			if d := got.Date.Format("2006-01-02"); d != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.text, d, tt.want)
			}
			if got.ExplicitYear != tt.explicitYear {
				t.Errorf("Resolve(%q) explicitYear = %v, want %v", tt.text, got.ExplicitYear, tt.explicitYear)
			}
			if got.Date.Location() != time.UTC || got.Date.Hour() != 0 {
				t.Errorf("Resolve(%q) should return UTC midnight, got %v", tt.text, got.Date)
			}
		})
	}
}

func TestResolution_Label(t *testing.T) {
	d := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	if got := (Resolution{Date: d}).Label(); got != "Feb 5" {
		t.Errorf("Label() = %q, want Feb 5", got)
	}
	if got := (Resolution{Date: d, ExplicitYear: true}).Label(); got != "2025-02-05" {
		t.Errorf("Label() = %q, want 2025-02-05", got)
	}
}

func TestResolution_SameMonthDay(t *testing.T) {
	r := Resolution{Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)}
	if !r.SameMonthDay(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected month/day match across years")
	}
	if r.SameMonthDay(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Error("different day should not match")
	}
}

func TestNewResolver_defaultClock(t *testing.T) {
	got, ok := NewResolver().Resolve("today")
	if !ok {
		t.Fatal("today should always resolve")
	}
	if want := time.Now().Format("2006-01-02"); got.Date.Format("2006-01-02") != want {
		t.Errorf("today resolved to %v, want %s", got.Date, want)
	}
}
