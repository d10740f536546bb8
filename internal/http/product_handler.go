package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Weight    float64   `json:"weight"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

func newProductResponse(product model.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID.String(),
		Name:      product.Name,
		Price:     product.Price,
		Weight:    product.Weight,
		Stock:     product.Stock,
		CreatedAt: product.CreatedAt,
	}
}

type CreateProductRequest struct {
	Name   *string  `json:"name" validate:"required"`
	Price  *float64 `json:"price" validate:"required"`
	Weight *float64 `json:"weight" validate:"required"`
	Stock  *int     `json:"stock" validate:"required"`
}

type UpdateProductRequest struct {
	Name   *string  `json:"name"`
	Price  *float64 `json:"price"`
	Weight *float64 `json:"weight"`
	Stock  *int     `json:"stock"`
}

type productHandler struct {
	productSvc service.ProductService
	validator  validator.Validator
	contract   *openapi3.T
}

func newProductHandler(productSvc service.ProductService, validator validator.Validator, contract *openapi3.T) *productHandler {
	return &productHandler{
		productSvc: productSvc,
		validator:  validator,
		contract:   contract,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.productSvc.ListProducts(r.Context())
	if err != nil {
		return fmt.Errorf("product service list products: %w", err)
	}

	items := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, newProductResponse(product))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productIDParam(r)
	if err != nil {
		return err
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var req CreateProductRequest
	if err := h.decodeBody(r, "/products", &req); err != nil {
		return err
	}

	if err := h.validator.Validate(req); err != nil {
		return fmt.Errorf("validate create product request: %w", err)
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:   *req.Name,
		Price:  *req.Price,
		Weight: *req.Weight,
		Stock:  *req.Stock,
	})
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	return writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productIDParam(r)
	if err != nil {
		return err
	}

	var req UpdateProductRequest
	if err := h.decodeBody(r, "/products/{id}", &req); err != nil {
		return err
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Name:   req.Name,
		Price:  req.Price,
		Weight: req.Weight,
		Stock:  req.Stock,
	})
	if err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productIDParam(r)
	if err != nil {
		return err
	}

	product, err := h.productSvc.DeleteProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

// decodeBody checks the body against the contract's schema for the operation
// at path, then decodes it into dst.
func (h *productHandler) decodeBody(r *http.Request, path string, dst any) error {
	item := h.contract.Paths.Find(path)
	if item == nil {
		return fmt.Errorf("path %s missing from api contract", path)
	}
	op := item.GetOperation(r.Method)
	if op == nil || op.RequestBody == nil {
		return fmt.Errorf("operation %s %s has no request body in api contract", r.Method, path)
	}

	input := &openapi3filter.RequestValidationInput{
		Request: r,
		Options: &openapi3filter.Options{MultiError: false},
	}
	if err := openapi3filter.ValidateRequestBody(r.Context(), input, op.RequestBody.Value); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("decode request body: %w", err))
	}

	return nil
}

func productIDParam(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", apperr.ValidationErr.WrapParent(fmt.Errorf("invalid format for parameter id: %w", err))
	}

	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
