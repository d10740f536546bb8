package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

// Service consumes the product topics published through the outbox.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

func New(logger *slog.Logger, mqConsumer mq.Consumer) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	for _, topic := range ProductTopics {
		if err := s.mqConsumer.RegisterHandler(topic, s.handleProductEvent); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", topic, err)
		}
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	return CleanupFunc(mqCleanup), nil
}

func (s *Service) handleProductEvent(ctx context.Context, topic string, payload []byte) error {
	var ev ProductEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("unmarshal %s event: %w", topic, err)
	}

	s.logger.InfoContext(ctx, "handling product event",
		slog.String("topic", topic),
		slog.String("product_id", ev.ProductID),
		slog.String("name", ev.Name),
		slog.Int("stock", ev.Stock),
	)

	return nil
}
