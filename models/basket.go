package models

import "time"

type BasketStatus string

const (
	// Basket lifecycle: open (editable) -> pending (awaiting payment),
	// pending -> open (payment cancelled) or pending -> finished (paid, terminal).
	BasketStatusOpen     BasketStatus = "open"
	BasketStatusPending  BasketStatus = "pending"
	BasketStatusFinished BasketStatus = "finished"
)

// Basket is the per-user cart aggregate. Each user has at most one active
// basket; finished baskets stay behind as immutable order history.
type Basket struct {
	BasketID    uint         `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"index;not null" json:"user_id"`
	Active      bool         `gorm:"index" json:"active"`
	Status      BasketStatus `gorm:"type:VARCHAR(20);default:'open'" json:"status"`
	Reference   string       `json:"reference,omitempty"` // Order reference, assigned when the basket finishes
	Items       []BasketItem `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice  float64      `json:"total_price"` // Derived; recomputed before every persist
	TotalItems  int          `json:"total_items"` // Derived; sum of item quantities
	Version     int64        `gorm:"not null;default:0" json:"-"` // Optimistic-concurrency counter
	LastUpdated time.Time    `json:"last_updated"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type BasketItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BasketID     uint      `gorm:"index;uniqueIndex:idx_basket_product" json:"-"`
	ProductID    uint      `gorm:"uniqueIndex:idx_basket_product" json:"product_id"` // One line per (basket, product)
	ProductName  string    `json:"product_name"`
	ProductImage string    `json:"product_image"`
	UnitPrice    float64   `json:"unit_price"` // Price at the time the line was added
	Quantity     int       `json:"quantity"`
	AddedAt      time.Time `json:"added_at"`
}
