package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Price       float64        `gorm:"not null" json:"price"`           // Unit price, non-negative
	Image       string         `json:"image"`
	Stock       int            `gorm:"not null;default:0" json:"stock"` // Available quantity; never decremented by the basket layer
	Categories  []Category     `gorm:"many2many:product_categories;" json:"categories"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
