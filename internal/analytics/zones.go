package analytics

import (
	"context"
	"fmt"
	"inmuebles/server/internal/models"
)

// SaleCountsByZone returns sold and unsold counts of a zone, zeros included.
func (e *Engine) SaleCountsByZone(ctx context.Context, zone string) (models.ZoneSaleCounts, error) {
	if zone == "" {
		return models.ZoneSaleCounts{}, ErrZoneRequired
	}

	counts, err := e.store.CountSales(ctx, zone)
	if err != nil {
		return models.ZoneSaleCounts{}, fmt.Errorf("sale counts for zone %q: %w", zone, err)
	}
	counts.Zone = zone

	return counts, nil
}

func (e *Engine) UniqueZones(ctx context.Context) ([]models.ZoneEntry, error) {
	zones, err := e.store.DistinctZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("unique zones: %w", err)
	}

	result := make([]models.ZoneEntry, 0, len(zones))
	for _, z := range zones {
		result = append(result, models.ZoneEntry{Zone: z})
	}
	return result, nil
}
