package pricing

import (
	"time"

	"github.com/pricetrack/api/internal/models"
	"github.com/pricetrack/api/internal/utils"
)

// Period selects the aggregation window for price averages.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period query value. An empty value defaults to
// "today".
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	case "":
		return PeriodToday, nil
	default:
		return "", utils.ErrInvalidPeriod
	}
}

// WindowStart resolves the inclusive start of a period's window. Month and
// year use 30- and 365-day approximations rather than calendar boundaries.
func WindowStart(period Period, now time.Time) time.Time {
	switch period {
	case PeriodWeek:
		return now.Add(-7 * day)
	case PeriodMonth:
		return now.Add(-30 * day)
	case PeriodYear:
		return now.Add(-365 * day)
	default: // today
		return midnight(now)
	}
}

// Mean returns the unrounded arithmetic mean of the point prices.
// Zero points yield zero.
func Mean(points []models.PricePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range points {
		total += p.Price
	}
	return total / float64(len(points))
}
