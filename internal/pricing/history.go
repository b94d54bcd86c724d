package pricing

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pricetrack/api/internal/models"
)

// Variation bands per window. Each synthetic point is the base price moved by
// an independent uniform draw within the band, rounded to 2 decimals.
const (
	todayVariation = 0.03
	weekVariation  = 0.07
	monthVariation = 0.10
	yearVariation  = 0.15
)

const day = 24 * time.Hour

// Generator produces synthetic price history around a base price. One
// generator is shared by request handlers and the refresh worker, so draws
// are serialized through an internal lock.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator constructs a Generator around a seedable random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Backfill produces the full creation-time history for a product: hourly
// points for the last 24h, daily for the last week, every 3 days for the last
// month, every ~30 days for the last year, plus one exact point at now.
// 12+7+10+12+1 = 42 points, ascending within each window.
func (g *Generator) Backfill(productID int, basePrice float64, now time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, 42)
	points = append(points, g.todayPoints(productID, basePrice, now)...)
	points = append(points, g.weekPoints(productID, basePrice, now)...)
	points = append(points, g.monthPoints(productID, basePrice, now)...)
	points = append(points, g.yearPoints(productID, basePrice, now)...)
	points = append(points, models.PricePoint{ProductID: productID, Price: basePrice, Timestamp: now})
	return points
}

// BackfillWindow produces synthetic history for a single period plus the
// exact point at now. Used when a window has no stored points at all.
func (g *Generator) BackfillWindow(period Period, productID int, basePrice float64, now time.Time) []models.PricePoint {
	var points []models.PricePoint
	switch period {
	case PeriodToday:
		points = g.todayPoints(productID, basePrice, now)
	case PeriodWeek:
		points = g.weekPoints(productID, basePrice, now)
	case PeriodMonth:
		points = g.monthPoints(productID, basePrice, now)
	case PeriodYear:
		points = g.yearPoints(productID, basePrice, now)
	}
	return append(points, models.PricePoint{ProductID: productID, Price: basePrice, Timestamp: now})
}

// TopUp fills gaps in sparse history for display. New points vary around
// basePrice (the product's current price, not the creation-time base) and are
// never persisted. The merged result is sorted ascending by timestamp.
func (g *Generator) TopUp(period Period, productID int, basePrice float64, existing []models.PricePoint, now time.Time) []models.PricePoint {
	merged := make([]models.PricePoint, len(existing))
	copy(merged, existing)

	switch {
	case period == PeriodWeek && len(existing) < 7:
		// One point per missing calendar day in the 7-day window.
		seen := existingDays(existing)
		for d := 7; d >= 1; d-- {
			ts := midnight(now.Add(-time.Duration(d) * day))
			if seen[dayKey(ts)] {
				continue
			}
			merged = append(merged, g.point(productID, basePrice, weekVariation, ts))
		}

	case period == PeriodMonth && len(existing) < 10:
		// Every 3 days across the 30-day window, skipping covered days.
		seen := existingDays(existing)
		for d := 30; d >= 3; d -= 3 {
			ts := midnight(now.Add(-time.Duration(d) * day))
			if seen[dayKey(ts)] {
				continue
			}
			merged = append(merged, g.point(productID, basePrice, monthVariation, ts))
		}

	case period == PeriodYear && len(existing) < 12:
		// One point per missing calendar month across the 12-month window.
		seen := map[monthKey]bool{}
		for _, p := range existing {
			t := p.Timestamp.UTC()
			seen[monthKey{t.Year(), t.Month()}] = true
		}
		for m := 12; m >= 1; m-- {
			ref := now.Add(-time.Duration(m) * 30 * day).UTC()
			key := monthKey{ref.Year(), ref.Month()}
			if seen[key] {
				continue
			}
			ts := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
			merged = append(merged, g.point(productID, basePrice, yearVariation, ts))
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	return merged
}

// todayPoints: every 2 hours across the last 24 hours, ±3%.
func (g *Generator) todayPoints(productID int, base float64, now time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, 12)
	for h := 24; h >= 2; h -= 2 {
		points = append(points, g.point(productID, base, todayVariation, now.Add(-time.Duration(h)*time.Hour)))
	}
	return points
}

// weekPoints: one per day across the last 7 days, ±7%.
func (g *Generator) weekPoints(productID int, base float64, now time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, 7)
	for d := 7; d >= 1; d-- {
		points = append(points, g.point(productID, base, weekVariation, now.Add(-time.Duration(d)*day)))
	}
	return points
}

// monthPoints: every 3 days across the last 30 days, ±10%.
func (g *Generator) monthPoints(productID int, base float64, now time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, 10)
	for d := 30; d >= 3; d -= 3 {
		points = append(points, g.point(productID, base, monthVariation, now.Add(-time.Duration(d)*day)))
	}
	return points
}

// yearPoints: one per ~month (30-day steps, not calendar months) across the
// last 12 months, ±15%.
func (g *Generator) yearPoints(productID int, base float64, now time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, 12)
	for m := 12; m >= 1; m-- {
		points = append(points, g.point(productID, base, yearVariation, now.Add(-time.Duration(m)*30*day)))
	}
	return points
}

func (g *Generator) point(productID int, base, variation float64, ts time.Time) models.PricePoint {
	g.mu.Lock()
	draw := g.rng.Float64()
	g.mu.Unlock()
	delta := (draw*2 - 1) * variation * base
	return models.PricePoint{
		ProductID: productID,
		Price:     round2(base + delta),
		Timestamp: ts,
	}
}

type monthKey struct {
	year  int
	month time.Month
}

func existingDays(points []models.PricePoint) map[string]bool {
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		seen[dayKey(p.Timestamp)] = true
	}
	return seen
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
