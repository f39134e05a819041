package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/config"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// globalKey is the message key of events not scoped to a disaster group.
const globalKey = "global"

// Publisher mirrors push events onto the events topic so downstream
// consumers get a durable copy. It implements domain.Broadcaster.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates an asynchronous producer for the configured events topic.
// Delivery failures are logged from the completion callback.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("publish events failed", "error", err, "count", len(msgs))
			}
		},
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

func (p *Publisher) BroadcastGlobal(ctx context.Context, event string, payload any) {
	p.publish(ctx, globalKey, event, payload)
}

func (p *Publisher) BroadcastToGroup(ctx context.Context, group, event string, payload any) {
	p.publish(ctx, group, event, payload)
}

func (p *Publisher) publish(ctx context.Context, key, event string, payload any) {
	msg, err := serializeToMessage(key, event, payload, domain.Now())
	if err != nil {
		p.logger.Error("serialize event", "event", event, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("enqueue event", "event", event, "error", err)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a push event into a Kafka message keyed by
// its group so one disaster's events stay ordered within a partition.
func serializeToMessage(key, event string, payload any, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s event: %w", event, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(event)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
