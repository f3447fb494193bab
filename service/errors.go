package service

import (
	"errors"
	"fmt"

	"github.com/BehnamMohamadi/mini-shop-sub000/models"
)

var (
	ErrBasketNotOpen    = errors.New("basket is not open for modification")
	ErrProductNotFound  = errors.New("product not found")
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrItemNotInBasket  = errors.New("item is not in the basket")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrConcurrentUpdate = errors.New("basket was modified concurrently, retry the operation")
)

// InsufficientStockError reports how many units can still be added on top of
// what the basket already holds.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, only %d more available", e.ProductID, e.Requested, e.Available)
}

type InvalidTransitionError struct {
	From models.BasketStatus
	To   models.BasketStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid basket status transition %s -> %s", e.From, e.To)
}
