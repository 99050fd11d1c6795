package models

import "math"

// RateCard holds the tariff for one move type.
type RateCard struct {
	Base       float64 `json:"base"`
	PerMile    float64 `json:"per_mile"`
	PerCubicFt float64 `json:"per_ft3"`
	PerItem    float64 `json:"per_item"`
}

// Revenue split between the assigned driver and the business.
const (
	DriverShareRate   = 0.7
	BusinessShareRate = 0.3
)

// PriceBreakdown is the itemized estimate. Components are kept unrounded;
// rounding happens only when a value is displayed or stored.
type PriceBreakdown struct {
	Pending            bool     `json:"pending"`
	MoveType           MoveType `json:"move_type"`
	Card               RateCard `json:"card"`
	DefaultCardApplied bool     `json:"default_card_applied"`
	CubicFeet          float64  `json:"cubic_feet"`
	ItemCount          int      `json:"item_count"`
	Base               float64  `json:"base"`
	Mileage            float64  `json:"mileage_component"`
	Volume             float64  `json:"volume_component"`
	Items              float64  `json:"item_component"`
	Stairs             float64  `json:"stairs_surcharge"`
	Total              float64  `json:"total"`
}

// RoundedTotal is the total to two decimal places.
func (b PriceBreakdown) RoundedTotal() float64 {
	return Round2(b.Total)
}

// DriverShare is 70% of the total, in cents precision.
func (b PriceBreakdown) DriverShare() float64 {
	return Round2(b.Total * DriverShareRate)
}

// BusinessShare is 30% of the total, in cents precision.
func (b PriceBreakdown) BusinessShare() float64 {
	return Round2(b.Total * BusinessShareRate)
}

// Quote converts the breakdown to the client facing price.
func (b PriceBreakdown) Quote() Quote {
	if b.Pending {
		return Quote{Pending: true}
	}
	return Quote{Amount: b.RoundedTotal()}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
