package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel/codes"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

// HandlerFunc processes one record. ctx carries the trace and correlation id
// recorded when the message was written to the outbox.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

type CleanupFunc func()

type Consumer interface {
	RegisterHandler(topic string, handler HandlerFunc) error
	Run(ctx context.Context) (CleanupFunc, error)
}

var _ Consumer = (*KafkaConsumer)(nil)

type KafkaConsumer struct {
	cl       *kgo.Client
	kTracer  *kotel.Tracer
	log      *slog.Logger
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewKafkaConsumer(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*KafkaConsumer, error) {
	kTracer, hooks := newKotel()

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.DisableAutoCommit(),
		kgo.AllowAutoTopicCreation(),
		kgo.WithContext(ctx),
		hooks,
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaConsumer{
		cl:       cl,
		kTracer:  kTracer,
		log:      logger.With(slog.String("component", "kafka_consumer")),
		handlers: make(map[string]HandlerFunc),
	}, nil
}

func (c *KafkaConsumer) RegisterHandler(topic string, handler HandlerFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handlers[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}

	c.handlers[topic] = handler
	c.cl.AddConsumeTopics(topic)
	return nil
}

// Run polls until the returned cleanup is called or ctx is done.
func (c *KafkaConsumer) Run(ctx context.Context) (CleanupFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		c.poll(ctx)
	}()

	return func() {
		cancel()
		<-doneChan
	}, nil
}

func (c *KafkaConsumer) Close() {
	c.cl.Close()
}

func (c *KafkaConsumer) poll(ctx context.Context) {
	for {
		fetches := c.cl.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.ErrorContext(ctx, "error fetching messages",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err),
			)
		})

		fetches.EachRecord(func(rec *kgo.Record) {
			c.handle(ctx, rec)
		})

		if err := c.cl.CommitUncommittedOffsets(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.ErrorContext(ctx, "error committing offsets", slog.Any("error", err))
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, rec *kgo.Record) {
	base := rec.Context
	if base == nil {
		base = ctx
	}
	rec.Context = outbox.ContextFromHeaders(base, outbox.RecordHeaders(rec))

	ctx, span := c.kTracer.WithProcessSpan(rec)
	defer span.End()

	defer func() {
		if rvr := recover(); rvr != nil {
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic in handler")

			c.log.ErrorContext(ctx, "panic in message handler",
				slog.String("topic", rec.Topic),
				slog.Any("recover", rvr),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	c.mu.RLock()
	fn, exists := c.handlers[rec.Topic]
	c.mu.RUnlock()
	if !exists {
		c.log.WarnContext(ctx, "no handler registered for topic", slog.String("topic", rec.Topic))
		return
	}

	if err := fn(ctx, rec.Topic, rec.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		c.log.ErrorContext(ctx, "error handling message",
			slog.String("topic", rec.Topic),
			slog.String("key", string(rec.Key)),
			slog.Any("error", err),
		)
	}
}
