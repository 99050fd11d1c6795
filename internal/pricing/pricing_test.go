package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/pikup-intake/internal/models"
)

func flatItems(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{ItemName: "flat pack"}
	}
	return items
}

func TestEngine_HomeToHomeExample(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	b := engine.Price(models.MoveHomeToHome, 10, flatItems(2), false, false)

	assert.False(t, b.Pending)
	assert.Equal(t, 100.0, b.Base)
	assert.Equal(t, 30.0, b.Mileage)
	assert.Equal(t, 0.0, b.Volume)
	assert.Equal(t, 10.0, b.Items)
	assert.Equal(t, 0.0, b.Stairs)
	assert.Equal(t, 140.0, b.RoundedTotal())
	assert.Equal(t, 98.0, b.DriverShare())
	assert.Equal(t, 42.0, b.BusinessShare())
}

func TestEngine_VolumeComponent(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	items := []models.Item{{ItemName: "crate", Length: 24, Width: 24, Height: 24}}

	b := engine.Price(models.MoveHomeToHome, 0, items, false, false)

	assert.InDelta(t, 8.0, b.CubicFeet, 1e-9)
	assert.InDelta(t, 0.5*8, b.Volume, 1e-9)

	junk := engine.Price(models.MoveJunkRemoval, 0, items, false, false)
	assert.InDelta(t, 0.1*8, junk.Volume, 1e-9)
}

func TestEngine_StairsSurcharge(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	items := []models.Item{{ItemName: "sofa", Length: 84, Width: 36, Height: 34}}

	for _, moveType := range []models.MoveType{models.MoveHomeToHome, models.MoveInHouse, models.MoveJunkRemoval} {
		without := engine.Price(moveType, 12.4, items, false, false)
		with := engine.Price(moveType, 12.4, items, true, false)
		assert.InDelta(t, 50.0, with.Total-without.Total, 1e-9, "move type %s", moveType)
	}

	photos := engine.Price(models.MoveHomeToHome, 12.4, items, true, true)
	assert.Equal(t, 0.0, photos.Stairs)
	assert.Equal(t, 0.0, photos.Total)
}

func TestEngine_PhotosArePending(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	b := engine.Price(models.MoveStorePickup, 20, flatItems(3), false, true)

	assert.True(t, b.Pending)
	assert.True(t, b.Quote().Pending)
	assert.Zero(t, b.Base)
	assert.Zero(t, b.Mileage)
	assert.Zero(t, b.Items)
}

func TestEngine_UnknownMoveTypeUsesDefaultCard(t *testing.T) {
	policy := DefaultPolicy()
	engine := NewEngine(policy)
	items := []models.Item{{ItemName: "desk", Length: 60, Width: 30, Height: 30}}

	card, known := policy.CardFor("Piano Relocation")
	assert.False(t, known)
	assert.Equal(t, policy.DefaultCard(), card)

	unknown := engine.Price("Piano Relocation", 7.5, items, true, false)
	reference := engine.Price(models.MoveHomeToHome, 7.5, items, true, false)

	assert.True(t, unknown.DefaultCardApplied)
	assert.False(t, reference.DefaultCardApplied)
	assert.Equal(t, reference.Total, unknown.Total)
}

func TestDefaultPolicy_Cards(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, policy.Cards[models.MoveHomeToHome], policy.Cards[models.MovePartyVenue])
	assert.Equal(t, models.RateCard{Base: 40, PerMile: 0, PerCubicFt: 0.5, PerItem: 2.5}, policy.Cards[models.MoveInHouse])
	assert.Len(t, policy.Cards, 5)
}

func TestEngine_ComponentsSumToTotal(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	items := []models.Item{
		{ItemName: "bed", Length: 80, Width: 60, Height: 14},
		{ItemName: "lamp", Length: 12, Width: 12, Height: 60},
	}

	b := engine.Price(models.MoveStorePickup, 3.33, items, true, false)

	assert.InDelta(t, b.Base+b.Mileage+b.Volume+b.Items+b.Stairs, b.Total, 1e-9)
	for _, c := range []float64{b.Base, b.Mileage, b.Volume, b.Items, b.Stairs} {
		assert.GreaterOrEqual(t, c, 0.0)
	}
}
