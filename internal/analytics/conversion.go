package analytics

import (
	"context"
	"fmt"
	"inmuebles/server/internal/models"
)

// ConversionRateByLocality returns, per locality, the percentage of visited
// listings that sold. Localities without visited listings are omitted.
func (e *Engine) ConversionRateByLocality(ctx context.Context) ([]models.LocalityConversionRate, error) {
	tallies, err := e.store.VisitTallies(ctx)
	if err != nil {
		return nil, fmt.Errorf("conversion rate by locality: %w", err)
	}

	result := make([]models.LocalityConversionRate, 0, len(tallies))
	for _, t := range tallies {
		if t.Visited <= 0 {
			continue
		}
		result = append(result, models.LocalityConversionRate{
			Locality:       t.Locality,
			ConversionRate: float64(t.Sold) * 100 / float64(t.Visited),
		})
	}

	e.debug("conversion_rate_by_locality", len(tallies), len(result))
	return result, nil
}
