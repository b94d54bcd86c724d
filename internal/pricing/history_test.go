package pricing

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/pricetrack/api/internal/models"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

func TestBackfillShape(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	g := newTestGenerator(1)

	points := g.Backfill(7, 100, now)
	if len(points) != 42 {
		t.Fatalf("Backfill produced %d points, want 42", len(points))
	}

	last := points[len(points)-1]
	if last.Price != 100 {
		t.Errorf("last point price = %v, want exactly 100", last.Price)
	}
	if !last.Timestamp.Equal(now) {
		t.Errorf("last point timestamp = %v, want %v", last.Timestamp, now)
	}

	for _, p := range points {
		if p.ProductID != 7 {
			t.Fatalf("point carries product id %d, want 7", p.ProductID)
		}
		if p.Timestamp.After(now) {
			t.Fatalf("point timestamp %v is after now", p.Timestamp)
		}
	}

	// Window bands: 12 hourly ±3%, 7 daily ±7%, 10 three-daily ±10%,
	// 12 monthly ±15%, then the exact point.
	bands := []struct {
		from, to  int
		variation float64
	}{
		{0, 12, 0.03},
		{12, 19, 0.07},
		{19, 29, 0.10},
		{29, 41, 0.15},
	}
	for _, band := range bands {
		for i := band.from; i < band.to; i++ {
			lo := 100 * (1 - band.variation)
			hi := 100 * (1 + band.variation)
			if points[i].Price < lo-0.01 || points[i].Price > hi+0.01 {
				t.Errorf("point %d price %v outside [%v, %v]", i, points[i].Price, lo, hi)
			}
		}
		// ascending within the window
		for i := band.from + 1; i < band.to; i++ {
			if points[i].Timestamp.Before(points[i-1].Timestamp) {
				t.Errorf("points %d and %d not chronologically ascending", i-1, i)
			}
		}
	}
}

func TestBackfillWindowCounts(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	g := newTestGenerator(2)

	tests := []struct {
		period Period
		count  int
	}{
		{PeriodToday, 13}, // 12 + the exact point at now
		{PeriodWeek, 8},
		{PeriodMonth, 11},
		{PeriodYear, 13},
	}
	for _, tt := range tests {
		points := g.BackfillWindow(tt.period, 1, 250, now)
		if len(points) != tt.count {
			t.Errorf("BackfillWindow(%s) produced %d points, want %d", tt.period, len(points), tt.count)
		}
		last := points[len(points)-1]
		if last.Price != 250 || !last.Timestamp.Equal(now) {
			t.Errorf("BackfillWindow(%s) last point = %+v, want exact base at now", tt.period, last)
		}
	}
}

func TestTopUpWeekFillsMissingDays(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	g := newTestGenerator(3)

	existing := []models.PricePoint{
		{ID: 1, ProductID: 1, Price: 98, Timestamp: now.Add(-2 * 24 * time.Hour)},
		{ID: 2, ProductID: 1, Price: 102, Timestamp: now.Add(-1 * 24 * time.Hour)},
	}

	merged := g.TopUp(PeriodWeek, 1, 100, existing, now)

	// Days 7..3 were uncovered, so 5 synthetic points join the 2 real ones.
	if len(merged) != 7 {
		t.Fatalf("TopUp produced %d points, want 7", len(merged))
	}
	if !sort.SliceIsSorted(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	}) {
		t.Errorf("merged points not sorted ascending")
	}

	seen := map[string]int{}
	for _, p := range merged {
		seen[p.Timestamp.UTC().Format("2006-01-02")]++
		if p.ID == 0 { // synthetic
			if p.Price < 93-0.01 || p.Price > 107+0.01 {
				t.Errorf("synthetic point price %v outside ±7%% of 100", p.Price)
			}
		}
	}
	for day, n := range seen {
		if n > 1 {
			t.Errorf("calendar day %s covered %d times", day, n)
		}
	}
}

func TestTopUpMonthAvoidsDuplicateDays(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	g := newTestGenerator(4)

	// One real point exactly on a 3-day grid slot.
	existing := []models.PricePoint{
		{ID: 9, ProductID: 2, Price: 500, Timestamp: now.Add(-3 * 24 * time.Hour)},
	}
	merged := g.TopUp(PeriodMonth, 2, 500, existing, now)

	// Grid slots 30,27,...,3 (10 slots); one is already covered.
	if len(merged) != 10 {
		t.Fatalf("TopUp produced %d points, want 10", len(merged))
	}
	for _, p := range merged {
		if p.ID != 0 {
			continue
		}
		if p.Price < 450-0.01 || p.Price > 550+0.01 {
			t.Errorf("synthetic point price %v outside ±10%% of 500", p.Price)
		}
	}
}

func TestTopUpYearFillsMissingMonths(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	g := newTestGenerator(5)

	existing := []models.PricePoint{
		{ID: 3, ProductID: 3, Price: 310, Timestamp: now.Add(-30 * 24 * time.Hour)},
	}
	merged := g.TopUp(PeriodYear, 3, 300, existing, now)

	if len(merged) < 12 {
		t.Fatalf("TopUp produced %d points, want at least 12", len(merged))
	}
	for _, p := range merged {
		if p.ID != 0 {
			continue
		}
		ts := p.Timestamp.UTC()
		if ts.Day() != 1 {
			t.Errorf("synthetic month point lands on day %d, want the 1st", ts.Day())
		}
		if p.Price < 255-0.01 || p.Price > 345+0.01 {
			t.Errorf("synthetic point price %v outside ±15%% of 300", p.Price)
		}
	}
}

// Points above the top-up thresholds pass through untouched.
func TestTopUpLeavesDenseHistoryAlone(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	g := newTestGenerator(6)

	existing := make([]models.PricePoint, 0, 7)
	for d := 7; d >= 1; d-- {
		existing = append(existing, models.PricePoint{
			ID: d, ProductID: 4, Price: 100, Timestamp: now.Add(-time.Duration(d) * 24 * time.Hour),
		})
	}
	merged := g.TopUp(PeriodWeek, 4, 100, existing, now)
	if len(merged) != len(existing) {
		t.Fatalf("dense history grew from %d to %d points", len(existing), len(merged))
	}
}
