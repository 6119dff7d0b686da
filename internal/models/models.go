package models

import (
	"time"

	"github.com/google/uuid"
)

// CarrierInternal is the carrier code of the in-house flat-rate carrier.
// Every other carrier code in a Quote is treated as a competitor.
const CarrierInternal = "inhouse"

// QuoteSource tags where a quote came from.
type QuoteSource string

const (
	SourceLive     QuoteSource = "live"
	SourceFallback QuoteSource = "fallback"
)

// Reason is the decision reason code recorded on every RoutingDecision.
type Reason string

const (
	ReasonCheapest       Reason = "cheapest"
	ReasonMarginSpeed    Reason = "within_margin_speed_advantage"
	ReasonCompetitorWins Reason = "competitor_cheaper"
	ReasonSoleCandidate  Reason = "sole_candidate"
	ReasonNoQuotes       Reason = "no_quotes"
)

// Dimensions are package dimensions in inches.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShipmentRequest is the transient per-decision quoting input. Weight is
// normalized to grams before the request is constructed.
type ShipmentRequest struct {
	OrderID           string     `json:"orderId"`
	OrgID             string     `json:"orgId"`
	OriginPostal      string     `json:"originPostal"`
	DestinationPostal string     `json:"destinationPostal"`
	WeightGrams       int        `json:"weightGrams"`
	Dims              Dimensions `json:"dims"`
	ItemCount         int        `json:"itemCount"`
}

// Quote is a single carrier+service price/time estimate. Immutable once
// produced by the aggregator.
type Quote struct {
	Carrier     string      `json:"carrier"`
	Service     string      `json:"service"`
	AmountCents int64       `json:"amountCents"`
	DaysMin     int         `json:"daysMin"`
	DaysMax     int         `json:"daysMax"`
	Source      QuoteSource `json:"source"`
	FetchedAt   time.Time   `json:"fetchedAt"`
}

// Internal reports whether the quote belongs to the in-house carrier.
func (q Quote) Internal() bool {
	return q.Carrier == CarrierInternal
}

// RoutingDecision is the append-only record of one carrier decision.
// Exactly one exists per order id; it is never mutated or deleted.
type RoutingDecision struct {
	ID            uuid.UUID `json:"id"`
	OrderID       string    `json:"orderId"`
	OrgID         string    `json:"orgId"`
	TS            time.Time `json:"ts"`
	Zone          int       `json:"zone"`
	Candidates    []Quote   `json:"candidates"`
	ChosenCarrier string    `json:"chosenCarrier,omitempty"`
	ChosenService string    `json:"chosenService,omitempty"`
	Reason        Reason    `json:"reason"`
	// SavingsCents is (losing best alternative) - (winner); negative when a
	// costlier-but-faster option won. Kept signed for audit.
	SavingsCents         int64 `json:"savingsCents"`
	MarginThresholdCents int64 `json:"marginThresholdCents,omitempty"`
}

// BusinessRules is the immutable decision policy, loaded once at startup and
// passed by value into the engine.
type BusinessRules struct {
	MarginPercent      int
	SpeedAdvantageDays int
	// MinSavingsCents is the minimum amount a cheaper competitor must save
	// for it to beat a faster in-house option that is within margin.
	// Zero disables the check.
	MinSavingsCents int64
	MaxWeightGrams  int
	MaxDims         Dimensions
}
