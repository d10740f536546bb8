package event

import (
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
)

// ProductTopics lists every topic the catalog publishes.
var ProductTopics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductDeleted,
}

// ProductEvent is the payload of every product topic: the product as it was
// right after the change (or right before deletion).
type ProductEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Weight    float64   `json:"weight"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProductEvent(p model.Product) ProductEvent {
	return ProductEvent{
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Weight:    p.Weight,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	}
}
