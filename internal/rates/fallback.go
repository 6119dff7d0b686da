package rates

import (
	"time"

	"github.com/shipmux/rate-router/internal/models"
)

// FallbackRate is a stale-but-comparable rate used when a provider's live API
// contributes nothing for a run.
type FallbackRate struct {
	AmountCents int64
	DaysMin     int
	DaysMax     int
}

// FallbackTable holds fallback rates keyed by (carrier, zone). One table is
// shared by all providers rather than duplicated per provider. Rates are
// stamped with LoadedAt so consumers can see how stale a substituted quote is;
// the table is refreshed only by restarting with new configuration.
type FallbackTable struct {
	rates    map[string]map[int]FallbackRate
	loadedAt time.Time
}

func NewFallbackTable(rates map[string]map[int]FallbackRate) *FallbackTable {
	return &FallbackTable{rates: rates, loadedAt: time.Now().UTC()}
}

// DefaultFallbackTable covers the shipped competitor lanes with conservative
// estimates sampled from historical quotes.
func DefaultFallbackTable() *FallbackTable {
	grid := func(base int64, step int64, daysMin, daysMax int) map[int]FallbackRate {
		out := make(map[int]FallbackRate, 9)
		for z := 0; z <= 8; z++ {
			out[z] = FallbackRate{
				AmountCents: base + int64(z)*step,
				DaysMin:     daysMin + z/3,
				DaysMax:     daysMax + z/2,
			}
		}
		return out
	}
	return NewFallbackTable(map[string]map[int]FallbackRate{
		"usps":  grid(480, 55, 2, 4),
		"fedex": grid(520, 70, 1, 3),
		"ups":   grid(540, 65, 1, 3),
	})
}

// Lookup returns the fallback quote for a carrier lane, if one is configured.
func (t *FallbackTable) Lookup(carrier string, zone int) (models.Quote, bool) {
	if t == nil {
		return models.Quote{}, false
	}
	byZone, ok := t.rates[carrier]
	if !ok {
		return models.Quote{}, false
	}
	r, ok := byZone[zone]
	if !ok {
		return models.Quote{}, false
	}
	return models.Quote{
		Carrier:     carrier,
		Service:     "ground",
		AmountCents: r.AmountCents,
		DaysMin:     r.DaysMin,
		DaysMax:     r.DaysMax,
		Source:      models.SourceFallback,
		FetchedAt:   t.loadedAt,
	}, true
}
