package models

import (
	"encoding/json"
	"math"
	"time"
)

// CPIObservation represents one month of a consumer price index series.
// MonthlyChange and YearlyChange carry the published percentage variations
// where the source reports them; Inflation is the rate derived from the
// index itself.
type CPIObservation struct {
	Date          time.Time `json:"date"`
	Index         float64   `json:"index"`
	Inflation     float64   `json:"inflation"` // month-over-month rate
	MonthlyChange float64   `json:"monthly_change,omitempty"`
	YearlyChange  float64   `json:"yearly_change,omitempty"`
	Region        string    `json:"region,omitempty"`
}

// MarshalJSON emits null for rate fields that have no value, such as the
// derived inflation of a series' first month.
func (o CPIObservation) MarshalJSON() ([]byte, error) {
	type alias CPIObservation
	return json.Marshal(struct {
		alias
		Inflation     *float64 `json:"inflation"`
		MonthlyChange *float64 `json:"monthly_change,omitempty"`
		YearlyChange  *float64 `json:"yearly_change,omitempty"`
	}{
		alias:         alias(o),
		Inflation:     nonNaN(o.Inflation),
		MonthlyChange: nonNaN(o.MonthlyChange),
		YearlyChange:  nonNaN(o.YearlyChange),
	})
}

func nonNaN(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// CPICategory represents a CPI reading broken down by division or opening.
type CPICategory struct {
	Date     time.Time `json:"date"`
	Code     string    `json:"code"`
	Category string    `json:"category"`
	Region   string    `json:"region,omitempty"`
	Index    float64   `json:"index"`
}

// CPIWeight represents the basket weight of one CPI division in a region.
type CPIWeight struct {
	Division string  `json:"division"`
	Region   string  `json:"region"`
	Weight   float64 `json:"weight"` // percentage of the basket
}

// ActivityObservation represents one period of an economic activity index.
type ActivityObservation struct {
	Date             time.Time `json:"date"`
	Original         float64   `json:"original"`
	SeasonallyAdjust float64   `json:"seasonally_adjusted,omitempty"`
	TrendCycle       float64   `json:"trend_cycle,omitempty"`
}

// SectorActivity represents an activity index reading for one sector.
type SectorActivity struct {
	Date   time.Time `json:"date"`
	Sector string    `json:"sector"`
	Index  float64   `json:"index"`
}

// GDPObservation represents one quarter of gross domestic product.
type GDPObservation struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Type     string    `json:"type,omitempty"` // "real", "nominal"
	Currency string    `json:"currency,omitempty"`
	Estimate bool      `json:"estimate,omitempty"` // extrapolated beyond the published series
}

// SeriesPoint represents one dated observation of a generic series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// AccrualRow represents one day of an index series with its derived
// update and capitalization factors.
type AccrualRow struct {
	Date                 time.Time `json:"date"`
	Index                float64   `json:"index"`
	Inflation            float64   `json:"inflation"`
	UpdateFactor         float64   `json:"update_factor"`
	CapitalizationFactor float64   `json:"capitalization_factor"`
}

// MonetaryVariable represents one observation of a central bank series.
type MonetaryVariable struct {
	Date       time.Time `json:"date"`
	VariableID int       `json:"variable_id"`
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
}

// ExchangeRate represents a currency quote for one day.
type ExchangeRate struct {
	Date   time.Time `json:"date"`
	Buy    float64   `json:"buy,omitempty"`
	Sell   float64   `json:"sell"`
	Type   string    `json:"type,omitempty"` // "official", "blue"
	Source string    `json:"source,omitempty"`
}

// IndexObservation represents one day of a financial index such as CER.
type IndexObservation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Name  string    `json:"name,omitempty"`
}

// InterestRate represents one observation of a market interest rate with
// its derived effective equivalents.
type InterestRate struct {
	Date     time.Time `json:"date"`
	Name     string    `json:"name"`
	Currency string    `json:"currency,omitempty"` // "ARS", "USD"
	TNA      float64   `json:"tna"`                // nominal annual rate
	TEM      float64   `json:"tem"`                // effective monthly rate
	TEA      float64   `json:"tea"`                // effective annual rate
}

// BalanceSheetEntry represents one central bank balance sheet line on a date.
type BalanceSheetEntry struct {
	Date    time.Time `json:"date"`
	Concept string    `json:"concept"`
	Value   float64   `json:"value"`
}

// ReleaseEvent represents a scheduled statistical release.
type ReleaseEvent struct {
	Date  time.Time `json:"date"`
	Title string    `json:"title"`
	Link  string    `json:"link,omitempty"`
}
