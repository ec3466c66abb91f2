package analytics

import (
	"context"
	"fmt"
	"inmuebles/server/internal/models"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// daysOnMarket counts whole days between listing and sale, rounding down.
// A sale recorded before the listing time gives a negative count.
func daysOnMarket(s models.SaleSample) int64 {
	elapsed := s.SoldAt.Sub(s.CreatedAt)
	days := int64(elapsed / day)
	if elapsed%day < 0 {
		days--
	}
	return days
}

// AvgMarketDurationByLocality averages days on market per locality over sold
// listings. The mean is truncated to whole days.
func (e *Engine) AvgMarketDurationByLocality(ctx context.Context) ([]models.LocalityMarketDuration, error) {
	samples, err := e.store.SaleSamples(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("average market duration by locality: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := newGroupedMean()
	for _, s := range samples {
		groups.add(s.Locality, decimal.NewFromInt(daysOnMarket(s)))
	}

	result := make([]models.LocalityMarketDuration, 0, groups.size())
	for _, locality := range groups.keys() {
		result = append(result, models.LocalityMarketDuration{
			Locality:        locality,
			AvgDaysOnMarket: int(groups.mean(locality).IntPart()),
		})
	}

	e.debug("avg_market_duration_by_locality", len(samples), len(result))
	return result, nil
}

// AvgMarketDurationByZone averages days on market over the sold listings of a
// zone, rounded to two decimals. Unlike the locality variant the mean is not
// truncated. A zone without sales yields an empty slice.
func (e *Engine) AvgMarketDurationByZone(ctx context.Context, zone string) ([]models.ZoneMarketDuration, error) {
	if zone == "" {
		return nil, ErrZoneRequired
	}

	samples, err := e.store.SaleSamples(ctx, zone)
	if err != nil {
		return nil, fmt.Errorf("average market duration for zone %q: %w", zone, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := []models.ZoneMarketDuration{}
	if len(samples) == 0 {
		return result, nil
	}

	var acc meanAccumulator
	for _, s := range samples {
		acc.add(decimal.NewFromInt(daysOnMarket(s)))
	}

	result = append(result, models.ZoneMarketDuration{
		Zone:            zone,
		AvgDaysOnMarket: acc.mean().RoundBank(2).InexactFloat64(),
	})

	e.debug("avg_market_duration_by_zone", len(samples), len(result))
	return result, nil
}
