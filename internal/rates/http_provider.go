package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shipmux/rate-router/internal/models"
)

// HTTPProviderConfig configures one third-party rate API wrapper.
type HTTPProviderConfig struct {
	Carrier    string
	BaseURL    string
	Path       string
	HTTPClient *http.Client
}

// HTTPProvider wraps a carrier rate API behind the Provider interface. Error
// statuses and non-JSON bodies surface as errors for the aggregator to absorb;
// they never crash the quoting run.
type HTTPProvider struct {
	carrier string
	baseURL string
	path    string
	client  *http.Client
}

func NewHTTPProvider(cfg HTTPProviderConfig) (*HTTPProvider, error) {
	if cfg.Carrier == "" {
		return nil, fmt.Errorf("rate provider carrier required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rate provider base url required")
	}
	path := cfg.Path
	if path == "" {
		path = "/rates"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{
		carrier: cfg.Carrier,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		path:    path,
		client:  client,
	}, nil
}

func (p *HTTPProvider) Name() string { return p.carrier }

type rateRequest struct {
	FromPostalCode string            `json:"fromPostalCode"`
	ToPostalCode   string            `json:"toPostalCode"`
	WeightGrams    int               `json:"weightGrams"`
	Dimensions     models.Dimensions `json:"dimensions"`
}

type rateResponse struct {
	Rates []struct {
		Carrier      string `json:"carrier"`
		Service      string `json:"service"`
		AmountCents  int64  `json:"amountCents"`
		DeliveryDays struct {
			Min int `json:"min"`
			Max int `json:"max"`
		} `json:"deliveryDays"`
	} `json:"rates"`
}

func (p *HTTPProvider) Quote(ctx context.Context, req models.ShipmentRequest) ([]models.Quote, error) {
	body, err := json.Marshal(rateRequest{
		FromPostalCode: req.OriginPostal,
		ToPostalCode:   req.DestinationPostal,
		WeightGrams:    req.WeightGrams,
		Dimensions:     req.Dims,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s rate call: %w", p.carrier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s rate api returned %s", p.carrier, resp.Status)
	}

	var parsed rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%s rate api body not parseable: %w", p.carrier, err)
	}

	now := time.Now().UTC()
	quotes := make([]models.Quote, 0, len(parsed.Rates))
	for _, r := range parsed.Rates {
		if r.AmountCents <= 0 {
			continue
		}
		carrier := r.Carrier
		if carrier == "" {
			carrier = p.carrier
		}
		quotes = append(quotes, models.Quote{
			Carrier:     carrier,
			Service:     r.Service,
			AmountCents: r.AmountCents,
			DaysMin:     r.DeliveryDays.Min,
			DaysMax:     r.DeliveryDays.Max,
			Source:      models.SourceLive,
			FetchedAt:   now,
		})
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s rate api returned no usable rates", p.carrier)
	}
	return quotes, nil
}
