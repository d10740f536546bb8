package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode     = "VALIDATION_FAILED"
	ProductNotFoundCode     = "PRODUCT_NOT_FOUND"
	DatabaseUnavailableCode = "DATABASE_UNAVAILABLE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	// ProductNotFoundErr is the only domain error returned by the product
	// service. Its message is part of the public API.
	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundCode, "Products is temporary not found")

	DatabaseUnavailableErr = zerror.NewServiceUnavailable(DatabaseUnavailableCode, "database is unavailable")
)
