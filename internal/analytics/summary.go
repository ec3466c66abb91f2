package analytics

import (
	"context"
	"fmt"
	"inmuebles/server/internal/models"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// periodTotals sums sale values per period start date.
type periodTotals map[models.Date]decimal.Decimal

func (p periodTotals) add(period models.Date, value decimal.Decimal) {
	p[period] = p[period].Add(value)
}

// points returns one value per period, oldest first
func (p periodTotals) points() []models.DatedValue {
	points := make([]models.DatedValue, 0, len(p))
	for date, total := range p {
		points = append(points, models.DatedValue{
			Date:       date,
			TotalValue: total.InexactFloat64(),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
	return points
}

// Periods are calendar months and years in UTC.
func monthOf(t time.Time) models.Date {
	t = t.UTC()
	return models.NewDate(t.Year(), t.Month(), 1)
}

func yearOf(t time.Time) models.Date {
	return models.NewDate(t.UTC().Year(), time.January, 1)
}

// SalesSummary totals sold values per calendar month and per calendar year
// of the sale date. Without sales both series are empty.
func (e *Engine) SalesSummary(ctx context.Context) (models.SalesSummary, error) {
	samples, err := e.store.SaleSamples(ctx, "")
	if err != nil {
		return models.SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.SalesSummary{}, err
	}

	monthly := periodTotals{}
	yearly := periodTotals{}
	for _, s := range samples {
		monthly.add(monthOf(s.SoldAt), s.Value)
		yearly.add(yearOf(s.SoldAt), s.Value)
	}

	summary := models.SalesSummary{
		Monthly: monthly.points(),
		Yearly:  yearly.points(),
	}

	e.logger.WithFields(logrus.Fields{
		"operation": "sales_summary",
		"rows":      len(samples),
		"months":    len(summary.Monthly),
		"years":     len(summary.Yearly),
	}).Debug("Computed analytics")
	return summary, nil
}
