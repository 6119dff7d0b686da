package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shipmux/rate-router/internal/models"
)

// 50 lb in grams, the shipped default.
const fiftyPounds = 22680

func testRules() models.BusinessRules {
	return models.BusinessRules{
		MaxWeightGrams: fiftyPounds,
		MaxDims:        models.Dimensions{Length: 24, Width: 18, Height: 12},
	}
}

func TestEligibleWithinBounds(t *testing.T) {
	v := NewValidator(testRules())
	req := models.ShipmentRequest{
		WeightGrams: 5000,
		Dims:        models.Dimensions{Length: 10, Width: 8, Height: 4},
	}
	assert.True(t, v.Eligible(req))
}

func TestOverweightIneligible(t *testing.T) {
	v := NewValidator(testRules())
	req := models.ShipmentRequest{WeightGrams: fiftyPounds + 454} // 51 lb
	assert.False(t, v.Eligible(req))
}

func TestOversizeDimensionIneligible(t *testing.T) {
	v := NewValidator(testRules())
	for _, dims := range []models.Dimensions{
		{Length: 25, Width: 1, Height: 1},
		{Length: 1, Width: 19, Height: 1},
		{Length: 1, Width: 1, Height: 13},
	} {
		req := models.ShipmentRequest{WeightGrams: 100, Dims: dims}
		assert.False(t, v.Eligible(req), "dims %+v", dims)
	}
}

func TestFilterDropsOnlyInternalQuotes(t *testing.T) {
	v := NewValidator(testRules())
	quotes := []models.Quote{
		{Carrier: models.CarrierInternal, AmountCents: 399},
		{Carrier: "fedex", AmountCents: 520},
		{Carrier: "usps", AmountCents: 480},
	}

	heavy := models.ShipmentRequest{WeightGrams: fiftyPounds + 1}
	filtered := v.Filter(heavy, quotes)
	assert.Len(t, filtered, 2)
	for _, q := range filtered {
		assert.False(t, q.Internal())
	}

	light := models.ShipmentRequest{WeightGrams: 100}
	assert.Equal(t, quotes, v.Filter(light, quotes))
}

func TestZeroBoundsDisableChecks(t *testing.T) {
	v := NewValidator(models.BusinessRules{})
	req := models.ShipmentRequest{
		WeightGrams: 1 << 30,
		Dims:        models.Dimensions{Length: 500, Width: 500, Height: 500},
	}
	assert.True(t, v.Eligible(req))
}
