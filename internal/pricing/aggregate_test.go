package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/pricetrack/api/internal/models"
	"github.com/pricetrack/api/internal/utils"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"today", PeriodToday, false},
		{"week", PeriodWeek, false},
		{"month", PeriodMonth, false},
		{"year", PeriodYear, false},
		{"", PeriodToday, false},
		{"bogus", "", true},
		{"Today", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if tt.wantErr {
			if !errors.Is(err, utils.ErrInvalidPeriod) {
				t.Errorf("ParsePeriod(%q) err = %v, want ErrInvalidPeriod", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePeriod(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

	if got := WindowStart(PeriodToday, now); !got.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today window start = %v, want UTC midnight", got)
	}
	if got := WindowStart(PeriodWeek, now); !got.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("week window start = %v", got)
	}
	if got := WindowStart(PeriodMonth, now); !got.Equal(now.Add(-30 * 24 * time.Hour)) {
		t.Errorf("month window start = %v", got)
	}
	if got := WindowStart(PeriodYear, now); !got.Equal(now.Add(-365 * 24 * time.Hour)) {
		t.Errorf("year window start = %v", got)
	}
}

func TestMean(t *testing.T) {
	points := []models.PricePoint{{Price: 1}, {Price: 2}, {Price: 4}}
	if got := Mean(points); got != 7.0/3.0 {
		t.Errorf("Mean = %v, want %v", got, 7.0/3.0)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
}
