package downstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Emitter carries the post-decision shipment-creation signal downstream. The
// caller treats it fire-and-forget: an emit failure is logged and the recorded
// decision stands.
type Emitter interface {
	SignalShipment(ctx context.Context, orderID, carrier, service string) error
	Close() error
}

// KafkaConfig configures the shipment-signal producer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	WriteTimeout time.Duration
}

// KafkaEmitter wraps a segmentio/kafka-go Writer with bounded retries. Keyed
// by order id so signals for one order land in one partition.
type KafkaEmitter struct {
	writer      *kafka.Writer
	maxAttempts int
}

func NewKafkaEmitter(cfg KafkaConfig) (*KafkaEmitter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	})
	return &KafkaEmitter{writer: w, maxAttempts: cfg.MaxAttempts}, nil
}

type shipmentSignal struct {
	OrderID string `json:"orderId"`
	Carrier string `json:"chosenCarrier"`
	Service string `json:"service"`
}

func (e *KafkaEmitter) SignalShipment(ctx context.Context, orderID, carrier, service string) error {
	value, err := json.Marshal(shipmentSignal{OrderID: orderID, Carrier: carrier, Service: service})
	if err != nil {
		return fmt.Errorf("marshal shipment signal: %w", err)
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		msg := kafka.Message{
			Key:   []byte(orderID),
			Value: value,
			Time:  time.Now().UTC(),
		}
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := e.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < e.maxAttempts {
			time.Sleep(backoff)
			if backoff < 2*time.Second {
				backoff *= 2
			}
		}
	}
	return fmt.Errorf("shipment signal failed after %d attempts: %w", e.maxAttempts, lastErr)
}

func (e *KafkaEmitter) Close() error {
	if e == nil || e.writer == nil {
		return nil
	}
	return e.writer.Close()
}
