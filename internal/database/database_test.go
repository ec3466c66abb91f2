package database

import (
	"context"
	"errors"
	"inmuebles/server/internal/models"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDatabase(t *testing.T) *Database {
	db, err := NewTestDB()
	require.NoError(t, err)
	require.NoError(t, MigrateSchema(db))

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	d := Wrap(db, logger)
	t.Cleanup(func() { d.Close() })
	return d
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newProperty(locality, zone string, area, value int64) *models.Property {
	return &models.Property{
		PropertyType: "Casa",
		Locality:     locality,
		Zone:         zone,
		Area:         decimal.NewFromInt(area),
		BuiltArea:    decimal.NewFromInt(area),
		Value:        decimal.NewFromInt(value),
		CreatedAt:    time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

func seed(t *testing.T, d *Database, properties ...*models.Property) {
	for _, p := range properties {
		require.NoError(t, d.CreateProperty(context.Background(), p))
	}
}

func TestCreateAndListProperties(t *testing.T) {
	d := setupTestDatabase(t)
	ctx := context.Background()

	p := newProperty("Rosario", "Centro", 120, 240000)
	p.BuiltArea = decimal.RequireFromString("95.50")
	p.VisitCount = intPtr(3)
	require.NoError(t, d.CreateProperty(ctx, p))
	assert.NotZero(t, p.ID)

	properties, err := d.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, properties, 1)

	stored := properties[0]
	assert.Equal(t, p.ID, stored.ID)
	assert.Equal(t, "Rosario", stored.Locality)
	assert.Equal(t, "Centro", stored.Zone)
	assert.True(t, decimal.NewFromInt(120).Equal(stored.Area))
	assert.True(t, decimal.RequireFromString("95.5").Equal(stored.BuiltArea))
	assert.True(t, decimal.NewFromInt(240000).Equal(stored.Value))
	require.NotNil(t, stored.VisitCount)
	assert.Equal(t, 3, *stored.VisitCount)
	assert.Nil(t, stored.SoldAt)
	assert.True(t, p.CreatedAt.Equal(stored.CreatedAt))
}

func TestCreatePropertyDefaultsCreatedAt(t *testing.T) {
	d := setupTestDatabase(t)

	p := newProperty("Rosario", "Centro", 100, 100000)
	p.CreatedAt = time.Time{}
	require.NoError(t, d.CreateProperty(context.Background(), p))

	assert.False(t, p.CreatedAt.IsZero())
}

func TestListPropertiesEmpty(t *testing.T) {
	d := setupTestDatabase(t)

	properties, err := d.ListProperties(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, properties)
	assert.Empty(t, properties)
}

func TestPriceSamples(t *testing.T) {
	d := setupTestDatabase(t)
	seed(t, d,
		newProperty("Rosario", "Centro", 100, 200000),
		newProperty("Rosario", "Norte", 50, 150000),
		newProperty("Cordoba", "Centro", 0, 90000),
	)

	all, err := d.PriceSamples(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	centro, err := d.PriceSamples(context.Background(), "Centro")
	require.NoError(t, err)
	require.Len(t, centro, 2)
	for _, s := range centro {
		assert.Equal(t, "Centro", s.Zone)
	}
}

func TestSaleSamples(t *testing.T) {
	d := setupTestDatabase(t)

	sold := newProperty("Rosario", "Centro", 100, 200000)
	sold.SoldAt = timePtr(sold.CreatedAt.AddDate(0, 0, 5))
	soldElsewhere := newProperty("Rosario", "Norte", 100, 300000)
	soldElsewhere.SoldAt = timePtr(soldElsewhere.CreatedAt.AddDate(0, 0, 9))
	seed(t, d, sold, soldElsewhere, newProperty("Rosario", "Centro", 80, 100000))

	all, err := d.SaleSamples(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	centro, err := d.SaleSamples(context.Background(), "Centro")
	require.NoError(t, err)
	require.Len(t, centro, 1)
	assert.True(t, sold.SoldAt.Equal(centro[0].SoldAt))
	assert.True(t, sold.CreatedAt.Equal(centro[0].CreatedAt))
	assert.True(t, decimal.NewFromInt(200000).Equal(centro[0].Value))
}

func TestVisitTallies(t *testing.T) {
	d := setupTestDatabase(t)

	var properties []*models.Property
	for i := 0; i < 10; i++ {
		p := newProperty("Rosario", "Centro", 100, 100000)
		p.VisitCount = intPtr(i + 1)
		if i < 3 {
			p.SoldAt = timePtr(p.CreatedAt.AddDate(0, 1, 0))
		}
		properties = append(properties, p)
	}
	unvisited := newProperty("Rosario", "Centro", 100, 100000)
	unvisited.SoldAt = timePtr(unvisited.CreatedAt.AddDate(0, 1, 0))
	zeroVisits := newProperty("Cordoba", "Nueva", 100, 100000)
	zeroVisits.VisitCount = intPtr(0)
	properties = append(properties, unvisited, zeroVisits)
	seed(t, d, properties...)

	tallies, err := d.VisitTallies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.VisitTally{{Locality: "Rosario", Visited: 10, Sold: 3}}, tallies)
}

func TestCountSales(t *testing.T) {
	d := setupTestDatabase(t)

	sold := newProperty("Rosario", "Centro", 100, 100000)
	sold.SoldAt = timePtr(sold.CreatedAt.AddDate(0, 0, 3))
	seed(t, d, sold, newProperty("Rosario", "Centro", 100, 100000), newProperty("Rosario", "Centro", 100, 100000))

	counts, err := d.CountSales(context.Background(), "Centro")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneSaleCounts{Zone: "Centro", Sold: 1, Unsold: 2}, counts)

	counts, err = d.CountSales(context.Background(), "Desierto")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneSaleCounts{Zone: "Desierto", Sold: 0, Unsold: 0}, counts)
}

func TestDistinctZones(t *testing.T) {
	d := setupTestDatabase(t)
	seed(t, d,
		newProperty("Rosario", "Norte", 100, 100000),
		newProperty("Rosario", "Centro", 100, 100000),
		newProperty("Cordoba", "Centro", 100, 100000),
	)

	zones, err := d.DistinctZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "Norte"}, zones)
}

func TestUpdateSaleDate(t *testing.T) {
	d := setupTestDatabase(t)
	p := newProperty("Rosario", "Centro", 100, 100000)
	seed(t, d, p)

	soldAt := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	updated, err := d.UpdateSaleDate(context.Background(), p.ID, soldAt)
	require.NoError(t, err)
	require.NotNil(t, updated.SoldAt)
	assert.True(t, soldAt.Equal(*updated.SoldAt))

	samples, err := d.SaleSamples(context.Background(), "Centro")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.True(t, soldAt.Equal(samples[0].SoldAt))
}

func TestTimestampsStoredInUTC(t *testing.T) {
	d := setupTestDatabase(t)
	ctx := context.Background()
	offset := time.FixedZone("UTC-5", -5*60*60)

	p := newProperty("Rosario", "Centro", 100, 100000)
	p.CreatedAt = time.Date(2024, time.March, 1, 20, 0, 0, 0, offset)
	seed(t, d, p)

	soldAt := time.Date(2024, time.March, 31, 23, 0, 0, 0, offset)
	updated, err := d.UpdateSaleDate(ctx, p.ID, soldAt)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, updated.SoldAt.Location())

	samples, err := d.SaleSamples(ctx, "Centro")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.True(t, soldAt.Equal(samples[0].SoldAt))
	assert.Equal(t, time.April, samples[0].SoldAt.Month())
	assert.True(t, p.CreatedAt.Equal(samples[0].CreatedAt))
	assert.Equal(t, 2, samples[0].CreatedAt.Day())
}

func TestIncrementVisitCount(t *testing.T) {
	d := setupTestDatabase(t)

	visited := newProperty("Rosario", "Centro", 100, 100000)
	visited.VisitCount = intPtr(4)
	neverVisited := newProperty("Rosario", "Centro", 100, 100000)
	seed(t, d, visited, neverVisited)

	updated, err := d.IncrementVisitCount(context.Background(), visited.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.VisitCount)
	assert.Equal(t, 5, *updated.VisitCount)

	updated, err = d.IncrementVisitCount(context.Background(), neverVisited.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.VisitCount)
	assert.Equal(t, 1, *updated.VisitCount)
}

func TestMutationsOnMissingProperty(t *testing.T) {
	d := setupTestDatabase(t)
	p := newProperty("Rosario", "Centro", 100, 100000)
	p.VisitCount = intPtr(2)
	seed(t, d, p)

	before, err := d.ListProperties(context.Background())
	require.NoError(t, err)

	_, err = d.UpdateSaleDate(context.Background(), p.ID+100, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = d.IncrementVisitCount(context.Background(), p.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := d.ListProperties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertProperties(t *testing.T) {
	d := setupTestDatabase(t)

	batch := []*models.Property{
		newProperty("Rosario", "Centro", 100, 100000),
		newProperty("Cordoba", "Nueva", 90, 120000),
	}
	err := d.GetDB().Transaction(func(tx *gorm.DB) error {
		return InsertProperties(tx, batch)
	})
	require.NoError(t, err)

	properties, err := d.ListProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, properties, 2)
}

func TestStoreUnavailable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("select sqlite_version").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("3.45.1"))

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	d := Wrap(db, logger)

	refused := errors.New("connection refused")
	mock.ExpectQuery("SELECT (.+) FROM .properties.").WillReturnError(refused)

	_, err = d.ListProperties(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, refused)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	d := setupTestDatabase(t)
	require.NoError(t, d.Close())

	_, err := d.DistinctZones(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	assert.ErrorIs(t, d.Ping(context.Background()), ErrStoreUnavailable)
}
