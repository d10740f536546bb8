package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

type fixture struct {
	db      *fakeDB
	repo    *fakeProductRepository
	outbox  *fakeOutboxMsgRepository
	service service.ProductService
}

func newFixture(products ...model.Product) fixture {
	f := fixture{
		db:     &fakeDB{},
		repo:   newFakeProductRepository(products...),
		outbox: &fakeOutboxMsgRepository{},
	}
	f.service = service.NewProductService(f.db, validator.NewDefaultValidator(), f.repo, f.outbox)
	return f
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()

	var zErr zerror.ZError
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, zerror.StatusNotFound, zErr.Status())
	assert.Equal(t, "Products is temporary not found", zErr.Msg())
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, service.CreateProductParams{
		Name:   "Pen",
		Price:  2,
		Weight: 10,
		Stock:  100,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.Equal(t, "Pen", product.Name)
	assert.Equal(t, 2.0, product.Price)
	assert.Equal(t, 10.0, product.Weight)
	assert.Equal(t, 100, product.Stock)
	assert.False(t, product.CreatedAt.IsZero())

	require.Len(t, f.outbox.msgs, 1)
	msg := f.outbox.msgs[0]
	assert.Equal(t, event.TopicProductCreated, msg.Topic)
	require.NotNil(t, msg.PartitionKey)
	assert.Equal(t, product.ID.String(), *msg.PartitionKey)

	var ev event.ProductEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	assert.Equal(t, product.ID.String(), ev.ProductID)
	assert.Equal(t, "Pen", ev.Name)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateProduct(context.Background(), service.CreateProductParams{Price: 1})

	var validationErrs govalidator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Equal(t, "name", validationErrs[0].Field())
	assert.Zero(t, f.repo.writes)
	assert.Zero(t, f.db.txCount)
}

func TestCreateProductStoreFailure(t *testing.T) {
	f := newFixture()
	storeErr := errors.New("connection refused")
	f.repo.err = storeErr

	_, err := f.service.CreateProduct(context.Background(), service.CreateProductParams{Name: "Pen"})

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, apperr.ProductNotFoundErr)
}

func TestCreateProductOutboxFailure(t *testing.T) {
	f := newFixture()
	outboxErr := errors.New("outbox down")
	f.outbox.err = outboxErr

	_, err := f.service.CreateProduct(context.Background(), service.CreateProductParams{Name: "Pen"})

	assert.ErrorIs(t, err, outboxErr)
}

func TestListProducts(t *testing.T) {
	t.Run("Should fail with not found on an empty store", func(t *testing.T) {
		f := newFixture()

		products, err := f.service.ListProducts(context.Background())

		assert.Nil(t, products)
		assertNotFound(t, err)
	})

	t.Run("Should return the single stored product", func(t *testing.T) {
		f := newFixture()
		created, err := f.service.CreateProduct(context.Background(), service.CreateProductParams{Name: "Pen", Price: 2, Weight: 10, Stock: 100})
		require.NoError(t, err)

		products, err := f.service.ListProducts(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []model.Product{created}, products)
	})

	t.Run("Should propagate store failures unclassified", func(t *testing.T) {
		f := newFixture()
		storeErr := errors.New("connection refused")
		f.repo.err = storeErr

		_, err := f.service.ListProducts(context.Background())

		assert.ErrorIs(t, err, storeErr)
		var zErr zerror.ZError
		assert.False(t, errors.As(err, &zErr))
	})
}

func TestGetProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, service.CreateProductParams{Name: "Pen", Price: 2, Weight: 10, Stock: 100})
	require.NoError(t, err)

	t.Run("Should return an existing product", func(t *testing.T) {
		product, err := f.service.GetProduct(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created, product)
	})

	t.Run("Should fail with not found for an unknown uuid", func(t *testing.T) {
		_, err := f.service.GetProduct(ctx, uuid.NewString())
		assertNotFound(t, err)
	})

	t.Run("Should fail with not found for a malformed id", func(t *testing.T) {
		_, err := f.service.GetProduct(ctx, "nonexistent")
		assertNotFound(t, err)
		assert.ErrorIs(t, err, apperr.ProductNotFoundErr)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should change only supplied fields", func(t *testing.T) {
		f := newFixture()
		created, err := f.service.CreateProduct(ctx, service.CreateProductParams{Name: "Pen", Price: 2, Weight: 10, Stock: 100})
		require.NoError(t, err)

		updated, err := f.service.UpdateProduct(ctx, created.ID.String(), service.UpdateProductParams{Price: ptr.New(5.0)})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "Pen", updated.Name)
		assert.Equal(t, 5.0, updated.Price)
		assert.Equal(t, 10.0, updated.Weight)
		assert.Equal(t, 100, updated.Stock)
		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductUpdated}, f.outbox.topics())
	})

	t.Run("Should fail with not found before any write", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.UpdateProduct(ctx, "nonexistent", service.UpdateProductParams{Price: ptr.New(5.0)})
		assertNotFound(t, err)

		_, err = f.service.UpdateProduct(ctx, uuid.NewString(), service.UpdateProductParams{Price: ptr.New(5.0)})
		assertNotFound(t, err)

		assert.Zero(t, f.repo.writes)
		assert.Empty(t, f.outbox.msgs)
	})

	t.Run("Should treat an empty patch as a read", func(t *testing.T) {
		f := newFixture()
		created, err := f.service.CreateProduct(ctx, service.CreateProductParams{Name: "Pen"})
		require.NoError(t, err)

		product, err := f.service.UpdateProduct(ctx, created.ID.String(), service.UpdateProductParams{})
		require.NoError(t, err)
		assert.Equal(t, created, product)
		assert.Equal(t, 1, f.repo.writes)

		_, err = f.service.UpdateProduct(ctx, uuid.NewString(), service.UpdateProductParams{})
		assertNotFound(t, err)
	})

	t.Run("Should reject an empty name", func(t *testing.T) {
		f := newFixture()
		created, err := f.service.CreateProduct(ctx, service.CreateProductParams{Name: "Pen"})
		require.NoError(t, err)

		_, err = f.service.UpdateProduct(ctx, created.ID.String(), service.UpdateProductParams{Name: ptr.New("")})

		var validationErrs govalidator.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return the pre-deletion snapshot", func(t *testing.T) {
		f := newFixture()
		created, err := f.service.CreateProduct(ctx, service.CreateProductParams{Name: "Pen", Price: 2, Weight: 10, Stock: 100})
		require.NoError(t, err)

		deleted, err := f.service.DeleteProduct(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created, deleted)

		_, err = f.service.GetProduct(ctx, created.ID.String())
		assertNotFound(t, err)
		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductDeleted}, f.outbox.topics())
	})

	t.Run("Should fail with not found for unknown ids", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.DeleteProduct(ctx, "nonexistent")
		assertNotFound(t, err)

		_, err = f.service.DeleteProduct(ctx, uuid.NewString())
		assertNotFound(t, err)
		assert.Zero(t, f.repo.writes)
	})
}
