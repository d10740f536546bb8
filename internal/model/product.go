package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entity. ID and CreatedAt are assigned on insert and
// never change afterwards.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     float64
	Weight    float64
	Stock     int
	CreatedAt time.Time
}
