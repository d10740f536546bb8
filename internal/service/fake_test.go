package service_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// fakeDB runs transactions inline. Only WithTx is used by the service; the
// embedded interface panics if anything else is reached.
type fakeDB struct {
	db.DB
	txCount int
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.txCount++
	return txFunc(f)
}

type fakeProductRepository struct {
	mu       sync.Mutex
	products []model.Product
	writes   int
	err      error
}

func newFakeProductRepository(products ...model.Product) *fakeProductRepository {
	return &fakeProductRepository{products: products}
}

func (r *fakeProductRepository) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepository) FindProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return model.Product{}, r.err
	}
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, repository.ErrProductNotFound
	}
	return r.products[i], nil
}

func (r *fakeProductRepository) ListAllProducts(context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return slices.Clone(r.products), nil
}

func (r *fakeProductRepository) CreateProduct(_ context.Context, params repository.CreateProductParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return model.Product{}, r.err
	}
	r.writes++
	p := model.Product{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      params.Name,
		Price:     params.Price,
		Weight:    params.Weight,
		Stock:     params.Stock,
		CreatedAt: time.Now(),
	}
	r.products = append(r.products, p)
	return p, nil
}

func (r *fakeProductRepository) UpdateProduct(_ context.Context, id uuid.UUID, params repository.UpdateProductParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return model.Product{}, r.err
	}
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, repository.ErrProductNotFound
	}
	r.writes++
	p := &r.products[i]
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	if params.Weight != nil {
		p.Weight = *params.Weight
	}
	if params.Stock != nil {
		p.Stock = *params.Stock
	}
	return *p, nil
}

func (r *fakeProductRepository) DeleteProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return model.Product{}, r.err
	}
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, repository.ErrProductNotFound
	}
	r.writes++
	p := r.products[i]
	r.products = slices.Delete(r.products, i, i+1)
	return p, nil
}

func (r *fakeProductRepository) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.products, func(p model.Product) bool { return p.ID == id })
}

type fakeOutboxMsgRepository struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
	err  error
}

func (r *fakeOutboxMsgRepository) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxMsgRepository) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *fakeOutboxMsgRepository) LockUnprocessedOutboxMsgs(context.Context, int32) ([]repository.OutboxMsg, error) {
	return nil, nil
}

func (r *fakeOutboxMsgRepository) MarkOutboxMsgsProcessed(context.Context, []repository.OutboxMsgResult) error {
	return nil
}

func (r *fakeOutboxMsgRepository) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics := make([]string, 0, len(r.msgs))
	for _, msg := range r.msgs {
		topics = append(topics, msg.Topic)
	}
	return topics
}
