package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shipmux/rate-router/internal/models"
)

// MemoryStore is an in-memory ledger with the same at-most-one-decision
// semantics as PGStore. Used by tests and database-less dev mode.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions map[string]models.RoutingDecision
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{decisions: map[string]models.RoutingDecision{}}
}

func (m *MemoryStore) Record(ctx context.Context, d models.RoutingDecision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.TS.IsZero() {
		d.TS = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decisions[d.OrderID]; ok {
		return ErrAlreadyExists
	}
	d.Candidates = append([]models.Quote(nil), d.Candidates...)
	m.decisions[d.OrderID] = d
	return nil
}

func (m *MemoryStore) Has(ctx context.Context, orderID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.decisions[orderID]
	return ok, nil
}

func (m *MemoryStore) Get(ctx context.Context, orderID string) (models.RoutingDecision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.decisions[orderID]
	if !ok {
		return models.RoutingDecision{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) Query(ctx context.Context, f Filter) ([]models.RoutingDecision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RoutingDecision
	for _, d := range m.decisions {
		if f.Carrier != "" && d.ChosenCarrier != f.Carrier {
			continue
		}
		if f.OrgID != "" && d.OrgID != f.OrgID {
			continue
		}
		if !f.From.IsZero() && d.TS.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && d.TS.After(f.To) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS.After(out[j].TS) })
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
