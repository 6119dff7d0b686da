package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shipmux/rate-router/internal/models"
)

var (
	// ErrAlreadyExists signals a duplicate Record for an order id. It is a
	// benign no-op outcome, not a failure: redelivered webhooks land here.
	ErrAlreadyExists = errors.New("decision already exists")

	ErrNotFound = errors.New("not found")
)

// Store is the append-only decision ledger. Record must be atomic per order
// id: two concurrent writes for the same order may race, but exactly one
// succeeds and the loser sees ErrAlreadyExists.
type Store interface {
	Record(ctx context.Context, d models.RoutingDecision) error
	Has(ctx context.Context, orderID string) (bool, error)
	Get(ctx context.Context, orderID string) (models.RoutingDecision, error)
	Query(ctx context.Context, f Filter) ([]models.RoutingDecision, error)
	Ping(ctx context.Context) error
}

// Filter narrows analytics queries. Zero values mean "any".
type Filter struct {
	Carrier string
	OrgID   string
	From    time.Time
	To      time.Time
}

// Summary is the derived analytics block served alongside query results.
type Summary struct {
	Total             int            `json:"total"`
	InternalWins      int            `json:"internalWins"`
	NoQuotes          int            `json:"noQuotes"`
	CaptureRate       float64        `json:"captureRate"`
	TotalSavingsCents int64          `json:"totalSavingsCents"`
	WinsByCarrier     map[string]int `json:"winsByCarrier"`
}

// Summarize derives operator analytics from a decision set: capture rate is
// the in-house share of decisions that actually chose a carrier.
func Summarize(decisions []models.RoutingDecision) Summary {
	s := Summary{WinsByCarrier: map[string]int{}}
	decided := 0
	for _, d := range decisions {
		s.Total++
		if d.Reason == models.ReasonNoQuotes {
			s.NoQuotes++
			continue
		}
		decided++
		s.WinsByCarrier[d.ChosenCarrier]++
		if d.ChosenCarrier == models.CarrierInternal {
			s.InternalWins++
		}
		s.TotalSavingsCents += d.SavingsCents
	}
	if decided > 0 {
		s.CaptureRate = float64(s.InternalWins) / float64(decided)
	}
	return s
}
