package analytics

import (
	"context"
	"fmt"
	"inmuebles/server/internal/models"
)

// AvgPricePerAreaByLocality averages value/area per locality. Each ratio is
// rounded to cents before averaging and listings without a positive area are
// skipped. The mean is of the ratios, not total value over total area.
func (e *Engine) AvgPricePerAreaByLocality(ctx context.Context) ([]models.LocalityAveragePrice, error) {
	samples, err := e.store.PriceSamples(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("average price per area by locality: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := newGroupedMean()
	for _, s := range samples {
		if !s.Area.IsPositive() {
			continue
		}
		groups.add(s.Locality, s.Value.Div(s.Area).RoundBank(2))
	}

	result := make([]models.LocalityAveragePrice, 0, groups.size())
	for _, locality := range groups.keys() {
		result = append(result, models.LocalityAveragePrice{
			Locality:        locality,
			AvgPricePerArea: groups.mean(locality).RoundBank(2).InexactFloat64(),
		})
	}

	e.debug("avg_price_per_area_by_locality", len(samples), len(result))
	return result, nil
}

// AvgPricePerAreaByZone averages value/area over the listings of one zone
// that have both a positive area and a positive value. The result always
// holds the zone; its average is nil when no listing qualifies.
func (e *Engine) AvgPricePerAreaByZone(ctx context.Context, zone string) (models.ZoneAveragePrice, error) {
	if zone == "" {
		return models.ZoneAveragePrice{}, ErrZoneRequired
	}

	samples, err := e.store.PriceSamples(ctx, zone)
	if err != nil {
		return models.ZoneAveragePrice{}, fmt.Errorf("average price per area for zone %q: %w", zone, err)
	}
	if err := ctx.Err(); err != nil {
		return models.ZoneAveragePrice{}, err
	}

	var acc meanAccumulator
	for _, s := range samples {
		if !s.Area.IsPositive() || !s.Value.IsPositive() {
			continue
		}
		acc.add(s.Value.Div(s.Area))
	}

	result := models.ZoneAveragePrice{Zone: zone}
	if acc.count > 0 {
		avg := acc.mean().RoundBank(2).InexactFloat64()
		result.AvgPricePerArea = &avg
	}

	e.debug("avg_price_per_area_by_zone", len(samples), int(acc.count))
	return result, nil
}
