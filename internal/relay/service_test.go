package relay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/relay"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

type fakeDB struct {
	db.DB
}

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

type fakeOutboxRepo struct {
	mu      sync.Mutex
	pending []repository.OutboxMsg
	limit   int32
	marked  []repository.OutboxMsgResult
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(context.Context, repository.CreateOutboxMsgParams) error {
	return nil
}

func (r *fakeOutboxRepo) LockUnprocessedOutboxMsgs(_ context.Context, limit int32) ([]repository.OutboxMsg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limit = limit
	msgs := r.pending
	r.pending = nil
	return msgs, nil
}

func (r *fakeOutboxRepo) MarkOutboxMsgsProcessed(_ context.Context, results []repository.OutboxMsgResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.marked = append(r.marked, results...)
	return nil
}

func (r *fakeOutboxRepo) markedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.marked)
}

type fakeProducer struct {
	mu       sync.Mutex
	failOn   string
	produced []mq.ProduceMsg
}

func (p *fakeProducer) Produce(_ context.Context, msg mq.ProduceMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.Topic == p.failOn {
		return errors.New("broker unavailable")
	}
	p.produced = append(p.produced, msg)
	return nil
}

func newMsg(topic string) repository.OutboxMsg {
	key := uuid.NewString()
	return repository.OutboxMsg{
		ID:           uuid.New(),
		Topic:        topic,
		Headers:      map[string]string{},
		Payload:      []byte(`{}`),
		PartitionKey: &key,
	}
}

func TestRelayBatch(t *testing.T) {
	ok := newMsg("product.created")
	failing := newMsg("product.deleted")
	repo := &fakeOutboxRepo{pending: []repository.OutboxMsg{ok, failing}}
	producer := &fakeProducer{failOn: "product.deleted"}

	svc := relay.NewService(config.Relay{BatchSize: 50}, slog.New(slog.NewTextHandler(io.Discard, nil)), fakeDB{}, repo, producer)

	n, err := svc.RelayBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, int32(50), repo.limit)
	require.Len(t, producer.produced, 1)
	assert.Equal(t, ok.PartitionKey, producer.produced[0].PartitionKey)

	require.Len(t, repo.marked, 2)
	assert.Equal(t, ok.ID, repo.marked[0].ID)
	assert.Nil(t, repo.marked[0].Error)
	assert.Equal(t, failing.ID, repo.marked[1].ID)
	require.NotNil(t, repo.marked[1].Error)
	assert.Contains(t, *repo.marked[1].Error, "broker unavailable")
}

func TestRelayBatchEmpty(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := relay.NewService(config.Relay{BatchSize: 10}, slog.New(slog.NewTextHandler(io.Discard, nil)), fakeDB{}, repo, &fakeProducer{})

	n, err := svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, repo.marked)
}

func TestRunRelaysUntilCleanup(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []repository.OutboxMsg{newMsg("product.created")}}
	svc := relay.NewService(config.Relay{
		BatchSize:       10,
		Interval:        10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), fakeDB{}, repo, &fakeProducer{})

	cleanup := svc.Run(context.Background())

	assert.Eventually(t, func() bool { return repo.markedCount() == 1 }, time.Second, 5*time.Millisecond)

	cleanup()
}
