package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

var ErrProductNotFound = errors.New("product not found")

// productColumns is the projection used by every statement returning products.
const productColumns = "id, name, price, weight, stock, created_at"

type CreateProductParams struct {
	Name   string
	Price  float64
	Weight float64
	Stock  int
}

// UpdateProductParams holds a partial update. Nil fields keep their value.
type UpdateProductParams struct {
	Name   *string
	Price  *float64
	Weight *float64
	Stock  *int
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	FindProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	// UpdateProduct and DeleteProduct check existence and write in a single
	// statement. They return ErrProductNotFound when no row matched.
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) FindProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func (r productRepository) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	price, err := toNumeric(params.Price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}

	weight, err := toNumeric(params.Weight)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert weight: %w", err)
	}

	stock, err := toInt32(params.Stock)
	if err != nil {
		return model.Product{}, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, price, weight, stock, created_at)
		VALUES (@id, @name, @price, @weight, @stock, @created_at)
		RETURNING `+productColumns,
		pgx.NamedArgs{
			"id":         id,
			"name":       params.Name,
			"price":      price,
			"weight":     weight,
			"stock":      stock,
			"created_at": time.Now().UTC().Truncate(time.Microsecond),
		},
	)

	product, err := scanProduct(row)
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	args := pgx.NamedArgs{
		"id":   id,
		"name": params.Name,
	}

	var err error
	if args["price"], err = toNullableNumeric(params.Price); err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}
	if args["weight"], err = toNullableNumeric(params.Weight); err != nil {
		return model.Product{}, fmt.Errorf("convert weight: %w", err)
	}

	var stock *int32
	if params.Stock != nil {
		v, err := toInt32(*params.Stock)
		if err != nil {
			return model.Product{}, err
		}
		stock = &v
	}
	args["stock"] = stock

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET
			name   = COALESCE(@name::text, name),
			price  = COALESCE(@price::numeric, price),
			weight = COALESCE(@weight::numeric, weight),
			stock  = COALESCE(@stock::integer, stock)
		WHERE id = @id
		RETURNING `+productColumns,
		args,
	)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("delete product: %w", err)
	}

	return product, nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p             model.Product
		price, weight pgtype.Numeric
		stock         int32
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &weight, &stock, &p.CreatedAt); err != nil {
		return model.Product{}, err
	}

	priceValue, err := price.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price to float64: %w", err)
	}
	weightValue, err := weight.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert weight to float64: %w", err)
	}

	p.Price = priceValue.Float64
	p.Weight = weightValue.Float64
	p.Stock = int(stock)

	return p, nil
}

func toNumeric(v float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func toNullableNumeric(v *float64) (pgtype.Numeric, error) {
	if v == nil {
		return pgtype.Numeric{}, nil
	}
	return toNumeric(*v)
}

func toInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("stock out of range: %d", v)
	}
	return int32(v), nil
}
