package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map product not found to 404", func(t *testing.T) {
		res := apierr.New(fmt.Errorf("product service get product: %w", apperr.ProductNotFoundErr))

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, apperr.ProductNotFoundCode, res.Code)
		assert.Equal(t, "Products is temporary not found", res.Message)
		assert.Nil(t, res.Details)
	})

	t.Run("Should map validation errors with field details", func(t *testing.T) {
		type req struct {
			Name *string `json:"name" validate:"required"`
		}
		err := validator.NewDefaultValidator().Validate(req{})
		require.Error(t, err)

		res := apierr.New(fmt.Errorf("validate: %w", err))

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, "validationError", res.Code)
		require.NotNil(t, res.Details)
		assert.Equal(t, []apierr.FieldError{{Field: "name", Message: "field is required"}}, *res.Details)
	})

	t.Run("Should map wrapped request errors to 400", func(t *testing.T) {
		res := apierr.New(apperr.ValidationErr.WrapParent(errors.New("invalid format for parameter id")))

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, "validationError", res.Code)
		assert.Contains(t, res.Message, "invalid format for parameter id")
	})

	t.Run("Should map database unavailable to 503", func(t *testing.T) {
		res := apierr.New(apperr.DatabaseUnavailableErr.WrapParent(errors.New("dial tcp: connection refused")))

		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		assert.Equal(t, "database is unavailable", res.Message)
	})

	t.Run("Should hide unknown errors behind 500", func(t *testing.T) {
		res := apierr.New(errors.New("pq: relation products does not exist"))

		assert.Equal(t, apierr.InternalServerErr, res)
	})
}
