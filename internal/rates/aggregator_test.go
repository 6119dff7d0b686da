package rates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipmux/rate-router/internal/models"
)

type stubProvider struct {
	name   string
	quotes []models.Quote
	err    error
	delay  time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, req models.ShipmentRequest) ([]models.Quote, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func liveQuote(carrier string, cents int64) models.Quote {
	return models.Quote{
		Carrier:     carrier,
		Service:     "ground",
		AmountCents: cents,
		DaysMin:     2,
		DaysMax:     4,
		Source:      models.SourceLive,
		FetchedAt:   time.Now().UTC(),
	}
}

func testRequest() models.ShipmentRequest {
	return models.ShipmentRequest{
		OrderID:           "ord-1",
		OriginPostal:      "75201",
		DestinationPostal: "90210",
		WeightGrams:       400,
	}
}

func TestQuoteCollectsAllProviders(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: models.CarrierInternal, quotes: []models.Quote{liveQuote(models.CarrierInternal, 399)}},
		&stubProvider{name: "fedex", quotes: []models.Quote{liveQuote("fedex", 520)}},
		&stubProvider{name: "usps", quotes: []models.Quote{liveQuote("usps", 480)}},
	}, nil, time.Second)

	res := agg.Quote(context.Background(), testRequest())
	require.Len(t, res.Quotes, 3)
	assert.Empty(t, res.Errors)
	// registration order preserved
	assert.Equal(t, models.CarrierInternal, res.Quotes[0].Carrier)
	assert.Equal(t, "fedex", res.Quotes[1].Carrier)
	assert.Equal(t, "usps", res.Quotes[2].Carrier)
}

func TestQuoteSubstitutesFallbackOnError(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: models.CarrierInternal, quotes: []models.Quote{liveQuote(models.CarrierInternal, 399)}},
		&stubProvider{name: "fedex", err: fmt.Errorf("rate api returned 503")},
	}, DefaultFallbackTable(), time.Second)

	res := agg.Quote(context.Background(), testRequest())
	require.Len(t, res.Quotes, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "fedex", res.Errors[0].Provider)

	fb := res.Quotes[1]
	assert.Equal(t, "fedex", fb.Carrier)
	assert.Equal(t, models.SourceFallback, fb.Source)
	assert.Greater(t, fb.AmountCents, int64(0))
}

func TestQuoteTimeoutSubstitutesFallback(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "usps", delay: 500 * time.Millisecond},
	}, DefaultFallbackTable(), 20*time.Millisecond)

	start := time.Now()
	res := agg.Quote(context.Background(), testRequest())
	assert.Less(t, time.Since(start), 300*time.Millisecond, "join must not wait past the timeout")

	require.Len(t, res.Errors, 1)
	assert.True(t, res.Errors[0].Timeout)
	require.Len(t, res.Quotes, 1)
	assert.Equal(t, models.SourceFallback, res.Quotes[0].Source)
}

func TestQuoteErrorWithoutFallbackLeavesLaneEmpty(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "obscure-carrier", err: fmt.Errorf("boom")},
	}, DefaultFallbackTable(), time.Second)

	res := agg.Quote(context.Background(), testRequest())
	assert.Empty(t, res.Quotes)
	assert.Len(t, res.Errors, 1)
}

func TestQuoteCancelledContextReturnsNothing(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "fedex", delay: 200 * time.Millisecond, quotes: []models.Quote{liveQuote("fedex", 520)}},
	}, DefaultFallbackTable(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := agg.Quote(ctx, testRequest())
	assert.Empty(t, res.Quotes)
	assert.Empty(t, res.Errors)
}

func TestInternalProviderRateCard(t *testing.T) {
	p := NewInternalProvider()
	quotes, err := p.Quote(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, models.CarrierInternal, q.Carrier)
	// zone 0 destination, 400g -> 500g tier
	assert.Equal(t, int64(379), q.AmountCents)
	assert.Equal(t, models.SourceLive, q.Source)
	assert.Equal(t, 1, q.DaysMin)
	assert.Equal(t, 2, q.DaysMax)
}

func TestFallbackLookupUnknownCarrier(t *testing.T) {
	tab := DefaultFallbackTable()
	_, ok := tab.Lookup("nope", 3)
	assert.False(t, ok)

	var nilTab *FallbackTable
	_, ok = nilTab.Lookup("usps", 3)
	assert.False(t, ok)
}
