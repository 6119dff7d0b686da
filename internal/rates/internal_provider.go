package rates

import (
	"context"
	"time"

	"github.com/shipmux/rate-router/internal/models"
	"github.com/shipmux/rate-router/internal/zone"
)

// weightTiers are the flat-rate weight breakpoints in grams, ascending.
var weightTiers = []int{250, 500, 1000, 2000, 5000, 10000, 22680}

// flatRateCents is the in-house rate card: cents per zone per weight tier.
// Rows are zones 0..8, columns follow weightTiers.
var flatRateCents = [9][7]int64{
	{349, 379, 399, 449, 549, 699, 999},
	{369, 399, 429, 489, 599, 769, 1099},
	{389, 419, 459, 529, 659, 849, 1219},
	{399, 439, 489, 569, 719, 939, 1349},
	{419, 469, 529, 619, 789, 1039, 1499},
	{449, 499, 569, 679, 869, 1149, 1669},
	{479, 539, 619, 739, 959, 1279, 1859},
	{519, 589, 679, 819, 1069, 1429, 2079},
	{569, 649, 759, 919, 1199, 1609, 2349},
}

// InternalProvider quotes the in-house flat-rate carrier from the zone/weight
// rate card. It never calls out and never fails.
type InternalProvider struct {
	service string
}

func NewInternalProvider() *InternalProvider {
	return &InternalProvider{service: "ground"}
}

func (p *InternalProvider) Name() string { return models.CarrierInternal }

func (p *InternalProvider) Quote(ctx context.Context, req models.ShipmentRequest) ([]models.Quote, error) {
	z, _ := zone.Map(req.DestinationPostal)
	daysMin, daysMax := zone.TransitDays(z, false)
	return []models.Quote{{
		Carrier:     models.CarrierInternal,
		Service:     p.service,
		AmountCents: flatRate(z, req.WeightGrams),
		DaysMin:     daysMin,
		DaysMax:     daysMax,
		Source:      models.SourceLive,
		FetchedAt:   time.Now().UTC(),
	}}, nil
}

// flatRate returns the rate for the smallest tier covering the weight.
// Weights over the top tier price at the top tier; eligibility filtering
// removes those quotes before the engine runs.
func flatRate(z, weightGrams int) int64 {
	if z < 0 || z > 8 {
		z = zone.DefaultZone
	}
	for i, tier := range weightTiers {
		if weightGrams <= tier {
			return flatRateCents[z][i]
		}
	}
	return flatRateCents[z][len(weightTiers)-1]
}
