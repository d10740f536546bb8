package http

import (
	"errors"
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

type healthResponse struct {
	Status string `json:"status"`
}

type healthHandler struct {
	healthChecker db.HealthChecker
}

func newHealthHandler(healthChecker db.HealthChecker) *healthHandler {
	return &healthHandler{healthChecker: healthChecker}
}

func (h *healthHandler) Liveness(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readiness reports 503 while the store does not answer a ping.
func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) error {
	healthy, err := h.healthChecker.IsHealthy(r.Context())
	if err != nil || !healthy {
		if err == nil {
			err = errors.New("database ping failed")
		}
		return apperr.DatabaseUnavailableErr.WrapParent(err)
	}

	return writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
