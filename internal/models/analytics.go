package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

type LocalityAveragePrice struct {
	Locality        string  `json:"locality"`
	AvgPricePerArea float64 `json:"avg_price_per_area"`
}

type LocalityConversionRate struct {
	Locality       string  `json:"locality"`
	ConversionRate float64 `json:"conversion_rate"`
}

type LocalityMarketDuration struct {
	Locality        string `json:"locality"`
	AvgDaysOnMarket int    `json:"avg_days_on_market"`
}

type ZoneSaleCounts struct {
	Zone   string `json:"zone"`
	Sold   int64  `json:"sold"`
	Unsold int64  `json:"unsold"`
}

// ZoneAveragePrice carries a nil average when the zone has no priced listing.
type ZoneAveragePrice struct {
	Zone            string   `json:"zone"`
	AvgPricePerArea *float64 `json:"avg_price_per_area"`
}

type ZoneMarketDuration struct {
	Zone            string  `json:"zone"`
	AvgDaysOnMarket float64 `json:"avg_days_on_market"`
}

type ZoneEntry struct {
	Zone string `json:"zone"`
}

type DatedValue struct {
	Date       Date    `json:"date"`
	TotalValue float64 `json:"total_value"`
}

type SalesSummary struct {
	Monthly []DatedValue `json:"monthly"`
	Yearly  []DatedValue `json:"yearly"`
}

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid date %s: %w", s, err)
	}
	d.Time = t
	return nil
}
