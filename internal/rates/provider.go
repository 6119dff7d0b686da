package rates

import (
	"context"

	"github.com/shipmux/rate-router/internal/models"
)

// Provider produces quotes for one carrier lane. Implementations must honor
// ctx cancellation; the aggregator bounds every call with a per-provider
// timeout.
type Provider interface {
	Name() string
	Quote(ctx context.Context, req models.ShipmentRequest) ([]models.Quote, error)
}

// ProviderError records a provider that contributed no live quote this run.
type ProviderError struct {
	Provider string `json:"provider"`
	Err      error  `json:"-"`
	Timeout  bool   `json:"timeout"`
}

func (e ProviderError) Error() string {
	if e.Timeout {
		return e.Provider + ": timeout"
	}
	return e.Provider + ": " + e.Err.Error()
}
