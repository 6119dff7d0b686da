package eligibility

import (
	"github.com/shipmux/rate-router/internal/models"
)

// Validator applies the in-house carrier's physical limits. External carriers
// carry no modeled restrictions.
type Validator struct {
	maxWeightGrams int
	maxDims        models.Dimensions
}

func NewValidator(rules models.BusinessRules) *Validator {
	return &Validator{
		maxWeightGrams: rules.MaxWeightGrams,
		maxDims:        rules.MaxDims,
	}
}

// Eligible reports whether the in-house carrier may serve the shipment.
func (v *Validator) Eligible(req models.ShipmentRequest) bool {
	if v.maxWeightGrams > 0 && req.WeightGrams > v.maxWeightGrams {
		return false
	}
	d, m := req.Dims, v.maxDims
	if m.Length > 0 && d.Length > m.Length {
		return false
	}
	if m.Width > 0 && d.Width > m.Width {
		return false
	}
	if m.Height > 0 && d.Height > m.Height {
		return false
	}
	return true
}

// Filter removes in-house quotes for ineligible shipments so the decision
// engine never needs carrier-specific exception handling.
func (v *Validator) Filter(req models.ShipmentRequest, quotes []models.Quote) []models.Quote {
	if v.Eligible(req) {
		return quotes
	}
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Internal() {
			continue
		}
		out = append(out, q)
	}
	return out
}
