package database

import (
	"context"
	"errors"
	"fmt"
	"inmuebles/server/internal/metrics"
	"inmuebles/server/internal/models"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound         = errors.New("property not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Database struct {
	db      *gorm.DB
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	version, _, _ := sqlite3.Version()
	logger.WithFields(logrus.Fields{
		"path":           dbPath,
		"sqlite_version": version,
	}).Info("Opened database")

	return &Database{db: db, logger: logger}, nil
}

var testDBCounter atomic.Int64

// NewTestDB opens a private in-memory database.
func NewTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Wrap builds a Database around an existing gorm handle.
func Wrap(db *gorm.DB, logger *logrus.Logger) *Database {
	if logger == nil {
		logger = logrus.New()
	}
	return &Database{db: db, logger: logger}
}

// SetMetrics enables store instrumentation.
func (d *Database) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func (d *Database) observe(operation string, start time.Time, err error) {
	if d.metrics != nil {
		d.metrics.RecordStoreOperation(operation, time.Since(start), err)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		d.logger.WithError(err).WithField("operation", operation).Error("Store operation failed")
	}
}

// storeError maps driver and gorm failures onto the package sentinels.
func storeError(operation string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrStoreUnavailable, err)
}

// ListProperties returns every listing ordered by id
func (d *Database) ListProperties(ctx context.Context) (properties []models.Property, err error) {
	defer func(start time.Time) { d.observe("list_properties", start, err) }(time.Now())

	properties = []models.Property{}
	if err := d.db.WithContext(ctx).Order("id").Find(&properties).Error; err != nil {
		return nil, storeError("list properties", err)
	}
	return properties, nil
}

// PriceSamples projects area and value of every listing, or of one zone when zone is not empty
func (d *Database) PriceSamples(ctx context.Context, zone string) (samples []models.PriceSample, err error) {
	defer func(start time.Time) { d.observe("price_samples", start, err) }(time.Now())

	query := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("locality, zone, area, value")
	if zone != "" {
		query = query.Where("zone = ?", zone)
	}

	if err := query.Scan(&samples).Error; err != nil {
		return nil, storeError("price samples", err)
	}
	return samples, nil
}

// SaleSamples projects sold listings, optionally restricted to one zone
func (d *Database) SaleSamples(ctx context.Context, zone string) (samples []models.SaleSample, err error) {
	defer func(start time.Time) { d.observe("sale_samples", start, err) }(time.Now())

	query := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("locality, zone, value, created_at, sold_at").
		Where("sold_at IS NOT NULL")
	if zone != "" {
		query = query.Where("zone = ?", zone)
	}

	if err := query.Scan(&samples).Error; err != nil {
		return nil, storeError("sale samples", err)
	}
	return samples, nil
}

// VisitTallies counts visited and sold listings per locality.
// Listings without visits are left out.
func (d *Database) VisitTallies(ctx context.Context) (tallies []models.VisitTally, err error) {
	defer func(start time.Time) { d.observe("visit_tallies", start, err) }(time.Now())

	err = d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select(`locality,
			COUNT(*) AS visited,
			SUM(CASE WHEN sold_at IS NOT NULL THEN 1 ELSE 0 END) AS sold`).
		Where("visit_count > 0").
		Group("locality").
		Order("locality").
		Scan(&tallies).Error
	if err != nil {
		return nil, storeError("visit tallies", err)
	}
	return tallies, nil
}

// CountSales counts sold and unsold listings of a zone
func (d *Database) CountSales(ctx context.Context, zone string) (counts models.ZoneSaleCounts, err error) {
	defer func(start time.Time) { d.observe("count_sales", start, err) }(time.Now())

	var row struct {
		Sold   int64
		Unsold int64
	}
	err = d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select(`COALESCE(SUM(CASE WHEN sold_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS sold,
			COALESCE(SUM(CASE WHEN sold_at IS NULL THEN 1 ELSE 0 END), 0) AS unsold`).
		Where("zone = ?", zone).
		Scan(&row).Error
	if err != nil {
		return models.ZoneSaleCounts{}, storeError("count sales", err)
	}

	return models.ZoneSaleCounts{Zone: zone, Sold: row.Sold, Unsold: row.Unsold}, nil
}

// DistinctZones returns every zone that has at least one listing
func (d *Database) DistinctZones(ctx context.Context) (zones []string, err error) {
	defer func(start time.Time) { d.observe("distinct_zones", start, err) }(time.Now())

	zones = []string{}
	err = d.db.WithContext(ctx).
		Model(&models.Property{}).
		Distinct("zone").
		Order("zone").
		Pluck("zone", &zones).Error
	if err != nil {
		return nil, storeError("distinct zones", err)
	}
	return zones, nil
}

// normalizeTimes stores timestamps in UTC so that the driver reads them back
// without the caller's offset.
func normalizeTimes(p *models.Property) {
	if !p.CreatedAt.IsZero() {
		p.CreatedAt = p.CreatedAt.UTC()
	}
	if p.SoldAt != nil {
		soldAt := p.SoldAt.UTC()
		p.SoldAt = &soldAt
	}
}

// CreateProperty inserts a listing; a zero CreatedAt is set to the current time
func (d *Database) CreateProperty(ctx context.Context, property *models.Property) (err error) {
	defer func(start time.Time) { d.observe("create_property", start, err) }(time.Now())

	property.ID = 0
	normalizeTimes(property)
	if err := d.db.WithContext(ctx).Create(property).Error; err != nil {
		return storeError("create property", err)
	}
	return nil
}

// UpdateSaleDate sets the sale date of a listing and returns the updated row
func (d *Database) UpdateSaleDate(ctx context.Context, id int64, soldAt time.Time) (property *models.Property, err error) {
	defer func(start time.Time) { d.observe("update_sale_date", start, err) }(time.Now())

	soldAt = soldAt.UTC()
	var p models.Property
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Update("sold_at", soldAt).Error; err != nil {
			return err
		}
		p.SoldAt = &soldAt
		return nil
	})
	if err != nil {
		return nil, storeError("update sale date", err)
	}
	return &p, nil
}

// IncrementVisitCount adds one visit to a listing. A null count counts as zero.
func (d *Database) IncrementVisitCount(ctx context.Context, id int64) (property *models.Property, err error) {
	defer func(start time.Time) { d.observe("increment_visit_count", start, err) }(time.Now())

	var p models.Property
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).UpdateColumn("visit_count", gorm.Expr("COALESCE(visit_count, 0) + ?", 1)).Error; err != nil {
			return err
		}
		return tx.First(&p, id).Error
	})
	if err != nil {
		return nil, storeError("increment visit count", err)
	}
	return &p, nil
}

// InsertProperties inserts a batch of properties using the given transaction
func InsertProperties(tx *gorm.DB, properties []*models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	for _, p := range properties {
		p.ID = 0
		normalizeTimes(p)
	}
	if err := tx.CreateInBatches(properties, len(properties)).Error; err != nil {
		return fmt.Errorf("failed to insert properties: %w", err)
	}
	return nil
}
