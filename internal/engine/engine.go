package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/shipmux/rate-router/internal/models"
)

// Decide picks the winning carrier for one shipment. It is a pure function of
// its inputs: quotes must already be eligibility-filtered, and the rules are
// passed in rather than read from ambient state.
//
// Policy order:
//  1. no candidates -> no_quotes, recorded for manual follow-up
//  2. no competitors -> in-house wins as sole_candidate
//  3. in-house at or under the cheapest competitor -> cheapest
//  4. in-house within the margin buffer and faster by the configured
//     speed-advantage threshold -> within_margin_speed_advantage
//  5. otherwise the cheapest competitor wins -> competitor_cheaper
func Decide(req models.ShipmentRequest, zone int, quotes []models.Quote, rules models.BusinessRules) models.RoutingDecision {
	d := models.RoutingDecision{
		ID:         uuid.New(),
		OrderID:    req.OrderID,
		OrgID:      req.OrgID,
		TS:         time.Now().UTC(),
		Zone:       zone,
		Candidates: quotes,
	}

	internal, hasInternal := bestInternal(quotes)
	competitor, hasCompetitor := cheapestCompetitor(quotes)

	switch {
	case !hasInternal && !hasCompetitor:
		d.Reason = models.ReasonNoQuotes
		return d

	case !hasCompetitor:
		d.ChosenCarrier = internal.Carrier
		d.ChosenService = internal.Service
		d.Reason = models.ReasonSoleCandidate
		return d

	case !hasInternal:
		d.ChosenCarrier = competitor.Carrier
		d.ChosenService = competitor.Service
		d.Reason = models.ReasonCompetitorWins
		if second, ok := secondCheapestCompetitor(quotes, competitor); ok {
			d.SavingsCents = second.AmountCents - competitor.AmountCents
		}
		return d
	}

	d.MarginThresholdCents = marginThreshold(competitor.AmountCents, rules.MarginPercent)

	if internal.AmountCents <= competitor.AmountCents {
		d.ChosenCarrier = internal.Carrier
		d.ChosenService = internal.Service
		d.Reason = models.ReasonCheapest
		d.SavingsCents = competitor.AmountCents - internal.AmountCents
		return d
	}

	if internal.AmountCents <= d.MarginThresholdCents &&
		rules.SpeedAdvantageDays > 0 &&
		speedAdvantage(internal, competitor) >= rules.SpeedAdvantageDays &&
		forgoneSavingsAcceptable(internal, competitor, rules) {
		d.ChosenCarrier = internal.Carrier
		d.ChosenService = internal.Service
		d.Reason = models.ReasonMarginSpeed
		// negative: the faster option cost more, kept visible for audit
		d.SavingsCents = competitor.AmountCents - internal.AmountCents
		return d
	}

	d.ChosenCarrier = competitor.Carrier
	d.ChosenService = competitor.Service
	d.Reason = models.ReasonCompetitorWins
	// savings is measured against the best losing alternative, which may be a
	// second competitor cheaper than the in-house quote
	loser := internal
	if second, ok := secondCheapestCompetitor(quotes, competitor); ok && second.AmountCents < loser.AmountCents {
		loser = second
	}
	d.SavingsCents = loser.AmountCents - competitor.AmountCents
	return d
}

// marginThreshold computes competitor*(1+margin%) in integer cents, rounded
// half-up, so boundary behavior is exact at the cent: $4.10 at 5% allows up
// to $4.31.
func marginThreshold(competitorCents int64, marginPercent int) int64 {
	if marginPercent <= 0 {
		return competitorCents
	}
	return (competitorCents*int64(100+marginPercent) + 50) / 100
}

// speedAdvantage is how many days faster the in-house option is, compared on
// the upper bound of each delivery window: an option only counts as faster
// when its worst case beats the competitor's worst case.
func speedAdvantage(internal, competitor models.Quote) int {
	return competitor.DaysMax - internal.DaysMax
}

// forgoneSavingsAcceptable gates the margin/speed override: when a minimum
// absolute savings is configured, a competitor saving at least that much keeps
// the win even against a faster in-house option.
func forgoneSavingsAcceptable(internal, competitor models.Quote, rules models.BusinessRules) bool {
	if rules.MinSavingsCents <= 0 {
		return true
	}
	return internal.AmountCents-competitor.AmountCents < rules.MinSavingsCents
}

func bestInternal(quotes []models.Quote) (models.Quote, bool) {
	var best models.Quote
	found := false
	for _, q := range quotes {
		if !q.Internal() {
			continue
		}
		if !found || less(q, best) {
			best = q
			found = true
		}
	}
	return best, found
}

func cheapestCompetitor(quotes []models.Quote) (models.Quote, bool) {
	var best models.Quote
	found := false
	for _, q := range quotes {
		if q.Internal() {
			continue
		}
		if !found || less(q, best) {
			best = q
			found = true
		}
	}
	return best, found
}

func secondCheapestCompetitor(quotes []models.Quote, cheapest models.Quote) (models.Quote, bool) {
	var best models.Quote
	found := false
	for _, q := range quotes {
		if q.Internal() || q == cheapest {
			continue
		}
		if !found || less(q, best) {
			best = q
			found = true
		}
	}
	return best, found
}

// less orders quotes by amount, then shorter delivery window, and otherwise
// keeps the earlier (registration-ordered) quote. Strict comparisons keep the
// selection stable and deterministic.
func less(a, b models.Quote) bool {
	if a.AmountCents != b.AmountCents {
		return a.AmountCents < b.AmountCents
	}
	if a.DaysMax != b.DaysMax {
		return a.DaysMax < b.DaysMax
	}
	if a.DaysMin != b.DaysMin {
		return a.DaysMin < b.DaysMin
	}
	return false
}
