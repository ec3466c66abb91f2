// Package analytics computes market statistics over property listings.
//
// The engine only reads projections from its Store and aggregates them in
// memory; counting and distinct lookups are pushed down to the store.
package analytics

import (
	"context"
	"errors"
	"inmuebles/server/internal/models"
	"os"

	"github.com/sirupsen/logrus"
)

var ErrZoneRequired = errors.New("zone is required")

// Store is the read side the engine needs from persistence.
// An empty zone argument means every zone.
type Store interface {
	PriceSamples(ctx context.Context, zone string) ([]models.PriceSample, error)
	SaleSamples(ctx context.Context, zone string) ([]models.SaleSample, error)
	VisitTallies(ctx context.Context) ([]models.VisitTally, error)
	CountSales(ctx context.Context, zone string) (models.ZoneSaleCounts, error)
	DistinctZones(ctx context.Context) ([]string, error)
}

type Engine struct {
	store  Store
	logger *logrus.Logger
}

func NewEngine(store Store, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Engine{
		store:  store,
		logger: logger,
	}
}

func (e *Engine) debug(operation string, rows int, groups int) {
	e.logger.WithFields(logrus.Fields{
		"operation": operation,
		"rows":      rows,
		"groups":    groups,
	}).Debug("Computed analytics")
}
