package rates

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shipmux/rate-router/internal/models"
	"github.com/shipmux/rate-router/internal/zone"
)

// AggregateResult is the partial quote set for one run. Quotes are ordered by
// provider registration so downstream tie-breaks stay deterministic.
type AggregateResult struct {
	Quotes []models.Quote
	Errors []ProviderError
}

// Aggregator fans a shipment request out to every registered provider
// concurrently. A provider that errors or times out contributes its fallback
// rate instead of failing the run; only a fully empty result is a hard
// condition, and deciding that is the engine's job, not the aggregator's.
type Aggregator struct {
	providers []Provider
	fallback  *FallbackTable
	timeout   time.Duration
}

func NewAggregator(providers []Provider, fallback *FallbackTable, perProviderTimeout time.Duration) *Aggregator {
	if perProviderTimeout <= 0 {
		perProviderTimeout = 5 * time.Second
	}
	return &Aggregator{
		providers: providers,
		fallback:  fallback,
		timeout:   perProviderTimeout,
	}
}

func (a *Aggregator) Quote(ctx context.Context, req models.ShipmentRequest) AggregateResult {
	type slot struct {
		quotes []models.Quote
		err    *ProviderError
	}

	z, _ := zone.Map(req.DestinationPostal)
	slots := make([]slot, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			quotes, err := p.Quote(callCtx, req)
			if err != nil {
				slots[i].err = &ProviderError{
					Provider: p.Name(),
					Err:      err,
					Timeout:  errors.Is(err, context.DeadlineExceeded),
				}
				return
			}
			slots[i].quotes = quotes
		}(i, p)
	}
	wg.Wait()

	if ctx.Err() != nil {
		// Owning task cancelled: abandon the run entirely so no partial
		// decision is ever assembled from it.
		return AggregateResult{}
	}

	var result AggregateResult
	for i, p := range a.providers {
		s := slots[i]
		if s.err == nil {
			result.Quotes = append(result.Quotes, s.quotes...)
			continue
		}
		result.Errors = append(result.Errors, *s.err)
		log.Printf("[rates] provider %s failed order=%s: %v", p.Name(), req.OrderID, s.err.Err)
		if fb, ok := a.fallback.Lookup(p.Name(), z); ok {
			result.Quotes = append(result.Quotes, fb)
		}
	}
	return result
}
