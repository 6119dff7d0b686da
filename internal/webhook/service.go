package webhook

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shipmux/rate-router/internal/downstream"
	"github.com/shipmux/rate-router/internal/eligibility"
	"github.com/shipmux/rate-router/internal/engine"
	"github.com/shipmux/rate-router/internal/ledger"
	"github.com/shipmux/rate-router/internal/models"
	"github.com/shipmux/rate-router/internal/orders"
	"github.com/shipmux/rate-router/internal/rates"
	"github.com/shipmux/rate-router/internal/zone"
)

// Event is the inbound webhook payload from the order-management platform.
type Event struct {
	ResourceURL  string `json:"resourceUrl"`
	ResourceType string `json:"resourceType"`
}

// OrderFetcher is the order-management collaborator.
type OrderFetcher interface {
	Fetch(ctx context.Context, orderID string) (orders.Order, error)
}

// Service drives the per-order decision pipeline:
//
//	received -> deduped -> order_fetched -> quoted -> decided -> ledger_written -> signal sent
//
// Accept returns before the pipeline runs so the webhook can be acknowledged
// within the platform's delivery SLA; everything after dedup happens on a
// background context detached from the HTTP request. The ledger's unique key
// is the correctness backstop for redelivery races.
type Service struct {
	fetcher    OrderFetcher
	aggregator *rates.Aggregator
	validator  *eligibility.Validator
	store      ledger.Store
	rules      models.BusinessRules
	emitter    downstream.Emitter
	archiver   ledger.Archiver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(fetcher OrderFetcher, aggregator *rates.Aggregator, validator *eligibility.Validator,
	store ledger.Store, rules models.BusinessRules, emitter downstream.Emitter, archiver ledger.Archiver) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		fetcher:    fetcher,
		aggregator: aggregator,
		validator:  validator,
		store:      store,
		rules:      rules,
		emitter:    emitter,
		archiver:   archiver,
		ctx:        ctx,
		cancel:     cancel,
		inFlight:   map[string]struct{}{},
	}
}

// Accept validates and dedups an event and, when it is new work, spawns the
// pipeline. The bool reports whether a pipeline was started; either way the
// caller acknowledges the webhook.
func (s *Service) Accept(event Event) bool {
	if event.ResourceType != "" && event.ResourceType != "ORDER_NOTIFY" {
		log.Printf("[webhook] ignoring resource type %q", event.ResourceType)
		return false
	}
	orderID, err := orders.ParseResourceURL(event.ResourceURL)
	if err != nil {
		log.Printf("[webhook] bad event: %v", err)
		return false
	}

	s.mu.Lock()
	if _, busy := s.inFlight[orderID]; busy {
		s.mu.Unlock()
		log.Printf("[webhook] order %s already in flight, dropping redelivery", orderID)
		return false
	}
	s.inFlight[orderID] = struct{}{}
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		s.release(orderID)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(orderID)
		s.process(s.ctx, orderID)
	}()
	return true
}

func (s *Service) release(orderID string) {
	s.mu.Lock()
	delete(s.inFlight, orderID)
	s.mu.Unlock()
}

// Close stops accepting work, cancels in-flight pipelines and waits for them.
// A cancelled pipeline writes no decision: the ledger only ever holds
// complete records.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) process(ctx context.Context, orderID string) {
	// Cheap pre-check; the unique-key insert below is the real guarantee.
	if done, err := s.store.Has(ctx, orderID); err == nil && done {
		log.Printf("[webhook] order %s already decided, skipping", orderID)
		return
	}

	order, err := s.fetcher.Fetch(ctx, orderID)
	if err != nil {
		// The platform redelivers independently; abandon for reconciliation.
		log.Printf("[webhook] abandoning order %s: %v", orderID, err)
		return
	}

	req := order.ShipmentRequest()
	z, _ := zone.Map(req.DestinationPostal)

	result := s.aggregator.Quote(ctx, req)
	if ctx.Err() != nil {
		return
	}
	candidates := s.validator.Filter(req, result.Quotes)

	decision := engine.Decide(req, z, candidates, s.rules)

	if err := s.store.Record(ctx, decision); err != nil {
		if errors.Is(err, ledger.ErrAlreadyExists) {
			log.Printf("[webhook] order %s decided by a concurrent delivery", orderID)
			return
		}
		log.Printf("[webhook] ledger write failed for order %s: %v", orderID, err)
		return
	}
	log.Printf("[webhook] order %s decided carrier=%s reason=%s savings_cents=%d",
		orderID, decision.ChosenCarrier, decision.Reason, decision.SavingsCents)

	s.afterRecord(decision)
}

// afterRecord runs the fire-and-forget tail: archive copy and downstream
// shipment signal. Failures here never roll back the recorded decision.
func (s *Service) afterRecord(decision models.RoutingDecision) {
	tailCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.archiver != nil {
		if err := s.archiver.ArchiveDecision(tailCtx, decision); err != nil {
			log.Printf("[webhook] archive decision %s: %v", decision.OrderID, err)
		}
	}
	if s.emitter != nil && decision.Reason != models.ReasonNoQuotes {
		if err := s.emitter.SignalShipment(tailCtx, decision.OrderID, decision.ChosenCarrier, decision.ChosenService); err != nil {
			log.Printf("[webhook] shipment signal %s: %v", decision.OrderID, err)
		}
	}
}
