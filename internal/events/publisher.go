package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/01moynul/keyu-storefront/internal/models"
)

// Click is one outbound visit to a product's affiliate link.
type Click struct {
	Product   models.Product
	Referrer  string
	UserAgent string
	RequestID string
	At        time.Time
}

// Publisher records affiliate clicks. Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, c Click) error
	Close(ctx context.Context)
}

// ProducerClient is the part of [kgo.Client] used by the publisher.
type ProducerClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

type KafkaPublisher struct {
	cl      ProducerClient
	encoder Encoder
	log     *slog.Logger
}

func NewKafkaPublisher(cl ProducerClient, enc Encoder, l *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{cl: cl, encoder: enc, log: l}
}

// NewKafkaClient opens a producer for topic and checks the brokers answer.
func NewKafkaClient(ctx context.Context, seedBrokers []string, topic string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopicAlways(),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("events.NewKafkaClient: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("events.NewKafkaClient: ping: %w", err)
	}
	return cl, nil
}

// Publish encodes the click and hands it to the client's buffer. Delivery
// failures are logged from the produce callback.
func (p *KafkaPublisher) Publish(ctx context.Context, c Click) error {
	const op = "events.KafkaPublisher.Publish"

	value, err := p.encoder.Encode(toSchemaV1(c))
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	r := &kgo.Record{Key: []byte(c.Product.ID), Value: value}
	p.cl.Produce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Warn("click event not delivered", "op", op,
				"product_id", string(r.Key), "err", err)
		}
	})
	return nil
}

// Close flushes buffered clicks, bounded by ctx, and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) {
	const op = "events.KafkaPublisher.Close"
	log := p.log.With("op", op)
	log.Info("closing click producer...")
	if err := p.cl.Flush(ctx); err != nil {
		log.Warn("flush interrupted", "err", err)
	}
	p.cl.Close()
	log.Info("click producer is closed")
}

func toSchemaV1(c Click) ClickV1 {
	v := ClickV1{
		EventID:      uuid.NewString(),
		ProductID:    c.Product.ID,
		ProductName:  c.Product.Name,
		AffiliateURL: c.Product.AffiliateURL,
		Referrer:     c.Referrer,
		UserAgent:    c.UserAgent,
		RequestID:    c.RequestID,
		OccurredAt:   c.At.UTC(),
	}
	if c.Product.Category != nil {
		cat := string(*c.Product.Category)
		v.Category = &cat
	}
	return v
}

// NoopPublisher drops clicks. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Click) error { return nil }
func (NoopPublisher) Close(context.Context)                {}
