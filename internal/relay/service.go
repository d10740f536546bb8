package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

// Service moves product events from the outbox table to Kafka.
type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
	}
}

type CleanupFunc func()

// Run relays a batch every cfg.Interval in the background. The cleanup lets
// an in-flight batch finish for up to cfg.ShutdownTimeout before cancelling it.
func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)
	stopChan := make(chan struct{})
	stoppedChan := make(chan struct{})

	go func() {
		defer close(stoppedChan)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopChan:
				return
			case <-ticker.C:
				if _, err := s.RelayBatch(ctx); err != nil {
					s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
				}
			}
		}
	}()

	return func() {
		close(stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(s.cfg.ShutdownTimeout):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

// RelayBatch publishes one batch of unprocessed messages and records the
// outcome of each. It returns how many messages were attempted.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	var attempted int

	err := s.db.WithTx(ctx, func(db db.DB) error {
		msgs, err := s.outboxMsgRepo.
			WithDB(db).
			//nolint:gosec
			LockUnprocessedOutboxMsgs(ctx, int32(s.cfg.BatchSize))
		if err != nil {
			return fmt.Errorf("lock unprocessed outbox msgs: %w", err)
		}

		if len(msgs) == 0 {
			return nil
		}
		attempted = len(msgs)

		s.logger.InfoContext(ctx, "relaying outbox msgs", slog.Int("count", len(msgs)))

		results := s.publish(ctx, msgs)

		if err := s.outboxMsgRepo.
			WithDB(db).
			MarkOutboxMsgsProcessed(ctx, results); err != nil {
			return fmt.Errorf("mark outbox msgs processed: %w", err)
		}

		return nil
	})

	return attempted, err
}

// publish produces every message concurrently. results[i] belongs to msgs[i].
func (s *Service) publish(ctx context.Context, msgs []repository.OutboxMsg) []repository.OutboxMsgResult {
	results := make([]repository.OutboxMsgResult, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		results[i].ID = msg.ID

		wg.Go(func() {
			msgCtx := outbox.ContextFromHeaders(ctx, msg.Headers)

			err := s.mqProducer.Produce(msgCtx, mq.ProduceMsg{
				Topic:        msg.Topic,
				Headers:      msg.Headers,
				Payload:      msg.Payload,
				PartitionKey: msg.PartitionKey,
			})
			if err != nil {
				s.logger.ErrorContext(msgCtx, "error producing message",
					slog.String("outbox_msg_id", msg.ID.String()),
					slog.String("topic", msg.Topic),
					slog.Any("error", err),
				)
				results[i].Error = ptr.New(err.Error())
			}
		})
	}
	wg.Wait()

	return results
}
