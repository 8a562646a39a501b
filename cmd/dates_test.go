package cmd

import (
	"testing"
	"time"

	"github.com/mintgrab/mintgrab/internal/api"
)

func TestParseDate(t *testing.T) {
	today := truncateToDay(time.Now())

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"absolute", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"today", "today", today, false},
		{"today uppercase", "TODAY", today, false},
		{"yesterday", "yesterday", today.AddDate(0, 0, -1), false},
		{"relative days", "-7d", today.AddDate(0, 0, -7), false},
		{"relative month", "-30d", today.AddDate(0, 0, -30), false},
		{"padded", "  2024-01-15  ", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "not-a-date", time.Time{}, true},
		{"bad relative", "-xd", time.Time{}, true},
		{"wrong layout", "01/15/2024", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateFilter(t *testing.T) {
	t.Run("default is all time", func(t *testing.T) {
		got, err := parseDateFilter("", "", "")
		if err != nil {
			t.Fatalf("parseDateFilter: %v", err)
		}
		if got.Window != api.AllTime {
			t.Errorf("Window = %q, want ALL_TIME", got.Window)
		}
	})

	t.Run("named range", func(t *testing.T) {
		got, err := parseDateFilter("Last-3-Months", "", "")
		if err != nil {
			t.Fatalf("parseDateFilter: %v", err)
		}
		if got.Window != api.Last3Months {
			t.Errorf("Window = %q, want LAST_3_MONTHS", got.Window)
		}
	})

	t.Run("unknown range", func(t *testing.T) {
		if _, err := parseDateFilter("fortnight", "", ""); err == nil {
			t.Fatal("want error for unknown range")
		}
	})

	t.Run("explicit dates become custom", func(t *testing.T) {
		got, err := parseDateFilter("", "2024-01-01", "2024-02-01")
		if err != nil {
			t.Fatalf("parseDateFilter: %v", err)
		}
		if got.Window != api.Custom {
			t.Errorf("Window = %q, want CUSTOM", got.Window)
		}
		if got.Start.Format("2006-01-02") != "2024-01-01" || got.End.Format("2006-01-02") != "2024-02-01" {
			t.Errorf("range = %v..%v", got.Start, got.End)
		}
	})

	t.Run("range and dates conflict", func(t *testing.T) {
		if _, err := parseDateFilter("this-month", "2024-01-01", "2024-02-01"); err == nil {
			t.Fatal("want conflict error")
		}
	})

	t.Run("start without end", func(t *testing.T) {
		if _, err := parseDateFilter("", "2024-01-01", ""); err == nil {
			t.Fatal("want error for lone --start")
		}
	})

	t.Run("end before start", func(t *testing.T) {
		if _, err := parseDateFilter("", "2024-02-01", "2024-01-01"); err == nil {
			t.Fatal("want error for inverted range")
		}
	})
}
