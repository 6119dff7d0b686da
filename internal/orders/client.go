package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shipmux/rate-router/internal/models"
)

// Order is the subset of the order-management platform's order payload the
// decision pipeline needs.
type Order struct {
	ID        string  `json:"id"`
	OrgID     string  `json:"orgId"`
	ShipFrom  string  `json:"shipFromPostalCode"`
	ShipTo    string  `json:"shipToPostalCode"`
	WeightOz  float64 `json:"weightOz"`
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	ItemCount int     `json:"itemCount"`
}

const gramsPerOunce = 28.3495

// ShipmentRequest normalizes the order into the quoting input (ounces to
// grams, dimensions in inches).
func (o Order) ShipmentRequest() models.ShipmentRequest {
	return models.ShipmentRequest{
		OrderID:           o.ID,
		OrgID:             o.OrgID,
		OriginPostal:      o.ShipFrom,
		DestinationPostal: o.ShipTo,
		WeightGrams:       int(o.WeightOz*gramsPerOunce + 0.5),
		Dims:              models.Dimensions{Length: o.Length, Width: o.Width, Height: o.Height},
		ItemCount:         o.ItemCount,
	}
}

// ClientConfig configures the order-management platform client.
type ClientConfig struct {
	BaseURL    string
	Retries    int
	HTTPClient *http.Client
}

// Client fetches order detail from the order-management platform. Transient
// failures retry with exponential backoff up to the configured attempt bound;
// after that the order is abandoned (the platform redelivers the webhook and
// the ledger makes a second attempt safe).
type Client struct {
	baseURL string
	client  *http.Client
	retries int
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("order platform base url required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		retries: retries,
	}, nil
}

func (c *Client) Fetch(ctx context.Context, orderID string) (Order, error) {
	attempts := c.retries + 1
	backoff := 200 * time.Millisecond
	var lastErr error

	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return Order{}, ctx.Err()
		}
		order, err := c.fetchOnce(ctx, orderID)
		if err == nil {
			return order, nil
		}
		lastErr = err
		if i < attempts-1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Order{}, ctx.Err()
			}
			backoff *= 2
		}
	}
	return Order{}, fmt.Errorf("fetch order %s after %d attempts: %w", orderID, attempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, orderID string) (Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/orders/%s", c.baseURL, url.PathEscape(orderID)), nil)
	if err != nil {
		return Order{}, fmt.Errorf("build order request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("order fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Order{}, fmt.Errorf("order platform returned %s", resp.Status)
	}
	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}

// ParseResourceURL extracts the order id from a webhook resourceUrl such as
// https://platform.example.com/api/orders/12345.
func ParseResourceURL(resourceURL string) (string, error) {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return "", fmt.Errorf("parse resource url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == "orders" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no order id in resource url %q", resourceURL)
}
