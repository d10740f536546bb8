package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

var tracer = otel.Tracer("internal/service")

type CreateProductParams struct {
	Name   string  `json:"name" validate:"required"`
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
	Stock  int     `json:"stock"`
}

// UpdateProductParams is a partial update: nil fields are left untouched.
type UpdateProductParams struct {
	Name   *string  `json:"name" validate:"omitnil,min=1"`
	Price  *float64 `json:"price"`
	Weight *float64 `json:"weight"`
	Stock  *int     `json:"stock"`
}

func (p UpdateProductParams) empty() bool {
	return p.Name == nil && p.Price == nil && p.Weight == nil && p.Stock == nil
}

// ProductService exposes the catalog operations. The only domain error it
// returns is apperr.ProductNotFoundErr; store failures are passed through
// wrapped but unclassified.
type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, id string, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) (model.Product, error)
}

type productService struct {
	db            db.DB
	validator     validator.Validator
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewProductService(
	db db.DB,
	validator validator.Validator,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		db:            db,
		validator:     validator,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

// ListProducts fails with ProductNotFoundErr when the catalog is empty.
func (s *productService) ListProducts(ctx context.Context) (products []model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.ListProducts")
	defer func() { endSpan(span, err) }()

	products, err = s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	if len(products) < 1 {
		return nil, apperr.ProductNotFoundErr
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (product model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.GetProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer func() { endSpan(span, err) }()

	productID, ok := parseProductID(id)
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	product, err = s.productRepo.FindProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository find product: %w", err)
	}

	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (product model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.CreateProduct")
	defer func() { endSpan(span, err) }()

	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, fmt.Errorf("validate create product params: %w", err)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err = s.productRepo.
			WithDB(db).
			CreateProduct(ctx, repository.CreateProductParams{
				Name:   params.Name,
				Price:  params.Price,
				Weight: params.Weight,
				Stock:  params.Stock,
			})
		if err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		return s.recordEvent(ctx, db, event.TopicProductCreated, product)
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	return product, nil
}

// UpdateProduct applies a partial update. The existence check and the write
// happen in one statement, so a concurrent delete cannot slip in between.
func (s *productService) UpdateProduct(ctx context.Context, id string, params UpdateProductParams) (product model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.UpdateProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer func() { endSpan(span, err) }()

	productID, ok := parseProductID(id)
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, fmt.Errorf("validate update product params: %w", err)
	}

	if params.empty() {
		return s.GetProduct(ctx, id)
	}

	err = s.db.WithTx(ctx, func(db db.DB) error {
		product, err = s.productRepo.
			WithDB(db).
			UpdateProduct(ctx, productID, repository.UpdateProductParams{
				Name:   params.Name,
				Price:  params.Price,
				Weight: params.Weight,
				Stock:  params.Stock,
			})
		if errors.Is(err, repository.ErrProductNotFound) {
			return apperr.ProductNotFoundErr
		}
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return s.recordEvent(ctx, db, event.TopicProductUpdated, product)
	})
	if errors.Is(err, apperr.ProductNotFoundErr) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

// DeleteProduct removes the product and returns it as it was before deletion.
func (s *productService) DeleteProduct(ctx context.Context, id string) (product model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.DeleteProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer func() { endSpan(span, err) }()

	productID, ok := parseProductID(id)
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	err = s.db.WithTx(ctx, func(db db.DB) error {
		product, err = s.productRepo.
			WithDB(db).
			DeleteProduct(ctx, productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return apperr.ProductNotFoundErr
		}
		if err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return s.recordEvent(ctx, db, event.TopicProductDeleted, product)
	})
	if errors.Is(err, apperr.ProductNotFoundErr) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

// recordEvent stores the change in the outbox inside the caller's transaction.
func (s *productService) recordEvent(ctx context.Context, db db.DB, topic string, product model.Product) error {
	payload, err := json.Marshal(event.NewProductEvent(product))
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	key := product.ID.String()
	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: &key,
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

// parseProductID reports false for ids that cannot exist in the store.
func parseProductID(id string) (uuid.UUID, bool) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return productID, true
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, apperr.ProductNotFoundErr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
