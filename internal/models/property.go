package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Property struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	PropertyType string          `json:"property_type" gorm:"not null"`
	Locality     string          `json:"locality" gorm:"not null;index:idx_properties_locality"`
	Zone         string          `json:"zone" gorm:"not null;index:idx_properties_zone"`
	Area         decimal.Decimal `json:"area" gorm:"type:decimal(10,2)"`
	BuiltArea    decimal.Decimal `json:"built_area" gorm:"type:decimal(10,2)"`
	Value        decimal.Decimal `json:"value" gorm:"type:decimal(15,2)"`
	VisitCount   *int            `json:"visit_count"`
	CreatedAt    time.Time       `json:"created_at"`
	SoldAt       *time.Time      `json:"sold_at"`
}

// IsSold reports whether the listing has a sale date.
func (p *Property) IsSold() bool {
	return p.SoldAt != nil
}

// PriceSample is the projection used by the price-per-area calculators.
type PriceSample struct {
	Locality string
	Zone     string
	Area     decimal.Decimal
	Value    decimal.Decimal
}

// SaleSample is the projection of a sold listing.
type SaleSample struct {
	Locality  string
	Zone      string
	Value     decimal.Decimal
	CreatedAt time.Time
	SoldAt    time.Time
}

// VisitTally holds per-locality counts over listings with at least one visit.
type VisitTally struct {
	Locality string
	Visited  int64
	Sold     int64
}
