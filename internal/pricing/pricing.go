// Package pricing computes move estimates from static rate cards.
package pricing

import (
	"github.com/ukydev/pikup-intake/internal/models"
)

// StairsSurcharge is the flat fee added when the move involves stairs.
const StairsSurcharge = 50.0

// Policy is the tariff configuration: one card per move type, the card used
// for unknown move types and the stairs surcharge.
type Policy struct {
	Cards           map[models.MoveType]models.RateCard
	Fallback        models.MoveType
	StairsSurcharge float64
}

// DefaultPolicy returns the published rate cards.
func DefaultPolicy() Policy {
	homeToHome := models.RateCard{Base: 100, PerMile: 3, PerCubicFt: 0.5, PerItem: 5}
	return Policy{
		Cards: map[models.MoveType]models.RateCard{
			models.MoveHomeToHome:  homeToHome,
			models.MoveInHouse:     {Base: 40, PerMile: 0, PerCubicFt: 0.5, PerItem: 2.5},
			models.MoveStorePickup: {Base: 100, PerMile: 3, PerCubicFt: 0.5, PerItem: 5},
			models.MoveJunkRemoval: {Base: 100, PerMile: 0, PerCubicFt: 0.1, PerItem: 5},
			models.MovePartyVenue:  homeToHome,
		},
		Fallback:        models.MoveHomeToHome,
		StairsSurcharge: StairsSurcharge,
	}
}

// DefaultCard is the card applied to move types with no card of their own.
func (p Policy) DefaultCard() models.RateCard {
	return p.Cards[p.Fallback]
}

// CardFor returns the card for moveType. The boolean is false when the move
// type is unknown and the default card was returned instead.
func (p Policy) CardFor(moveType models.MoveType) (models.RateCard, bool) {
	if card, ok := p.Cards[moveType]; ok {
		return card, true
	}
	return p.DefaultCard(), false
}

// Engine prices move requests. It has no external dependencies.
type Engine struct {
	policy Policy
}

// NewEngine creates an engine for the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's tariff configuration.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Price computes the estimate. Photo submissions are not priced: every
// component is zero and the breakdown is marked pending.
func (e *Engine) Price(moveType models.MoveType, miles float64, items []models.Item, hasStairs, usePhotos bool) models.PriceBreakdown {
	if usePhotos {
		return models.PriceBreakdown{Pending: true, MoveType: moveType}
	}

	card, known := e.policy.CardFor(moveType)

	var cubicFeet float64
	for _, item := range items {
		cubicFeet += item.CubicFeet()
	}

	b := models.PriceBreakdown{
		MoveType:           moveType,
		Card:               card,
		DefaultCardApplied: !known,
		CubicFeet:          cubicFeet,
		ItemCount:          len(items),
		Base:               card.Base,
		Mileage:            card.PerMile * miles,
		Volume:             card.PerCubicFt * cubicFeet,
		Items:              card.PerItem * float64(len(items)),
	}
	if hasStairs {
		b.Stairs = e.policy.StairsSurcharge
	}
	b.Total = b.Base + b.Mileage + b.Volume + b.Items + b.Stairs
	return b
}
