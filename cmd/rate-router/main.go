package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/shipmux/rate-router/internal/config"
	"github.com/shipmux/rate-router/internal/downstream"
	"github.com/shipmux/rate-router/internal/eligibility"
	"github.com/shipmux/rate-router/internal/httpserver"
	"github.com/shipmux/rate-router/internal/ledger"
	"github.com/shipmux/rate-router/internal/orders"
	"github.com/shipmux/rate-router/internal/rates"
	"github.com/shipmux/rate-router/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store ledger.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.Ping(); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		store = ledger.NewPGStore(db)
	} else {
		log.Printf("[main] no database configured, using in-memory ledger")
		store = ledger.NewMemoryStore()
	}

	fetcher, err := orders.NewClient(orders.ClientConfig{
		BaseURL: cfg.OrderPlatformURL,
		Retries: cfg.OrderFetchRetries,
	})
	if err != nil {
		log.Fatalf("order platform client: %v", err)
	}

	providers := []rates.Provider{rates.NewInternalProvider()}
	for _, ep := range cfg.ProviderEndpoints {
		p, err := rates.NewHTTPProvider(rates.HTTPProviderConfig{Carrier: ep.Carrier, BaseURL: ep.BaseURL})
		if err != nil {
			log.Fatalf("rate provider %s: %v", ep.Carrier, err)
		}
		providers = append(providers, p)
	}
	aggregator := rates.NewAggregator(providers, rates.DefaultFallbackTable(), cfg.ProviderTimeout)

	var emitter downstream.Emitter
	if len(cfg.KafkaBrokers) > 0 {
		emitter, err = downstream.NewKafkaEmitter(downstream.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Fatalf("kafka emitter: %v", err)
		}
		defer emitter.Close()
	}

	var archiver ledger.Archiver
	if cfg.ArchiveBucket != "" {
		archiver, err = ledger.NewS3Archiver(context.Background(), cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			log.Fatalf("s3 archiver: %v", err)
		}
	}

	service := webhook.New(fetcher, aggregator, eligibility.NewValidator(cfg.Rules),
		store, cfg.Rules, emitter, archiver)
	server := httpserver.New(service, store, cfg.AnalyticsJWTSecret)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("[main] rate router listening on %s (providers=%d)", cfg.Addr, len(providers))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, service)
}

func waitForShutdown(srv *http.Server, service *webhook.Service) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	service.Close()
}
