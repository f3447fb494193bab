package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/BehnamMohamadi/mini-shop-sub000/models"
)

// EventPublisher pushes domain events to the message broker. A nil publisher
// disables eventing.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// OrderFinishedEvent is published when a basket transitions to finished.
type OrderFinishedEvent struct {
	EventID    string              `json:"event_id"`
	Reference  string              `json:"reference"`
	UserID     string              `json:"user_id"`
	TotalPrice float64             `json:"total_price"`
	TotalItems int                 `json:"total_items"`
	Items      []models.BasketItem `json:"items"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Summary is the lightweight basket view for badge counters and checkout
// confirmation screens.
type Summary struct {
	TotalItems int                 `json:"total_items"`
	TotalPrice float64             `json:"total_price"`
	ItemCount  int                 `json:"item_count"` // distinct lines
	Status     models.BasketStatus `json:"status"`
}

// BasketService is the sole entry point for reading and mutating baskets.
// Mutations are serialized per user and persisted with a version check, so
// two concurrent adds can never both pass the stock check on stale state.
type BasketService struct {
	db         *gorm.DB
	bus        EventPublisher
	orderTopic string
	locks      *userLocks
}

func New(db *gorm.DB, bus EventPublisher, orderTopic string) *BasketService {
	return &BasketService{db: db, bus: bus, orderTopic: orderTopic, locks: newUserLocks()}
}

// GetOrCreate returns the user's active basket, creating an empty open one on
// first access.
func (s *BasketService) GetOrCreate(ctx context.Context, userID string) (*models.Basket, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.activeBasket(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// AddItem puts quantity units of a product into the user's basket, merging
// into an existing line when one is already there. The combined line quantity
// may not exceed the product's available stock.
func (s *BasketService) AddItem(ctx context.Context, userID string, productID uint, quantity int) (*models.Basket, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.activeBasket(tx, userID)
		if err != nil {
			return err
		}
		if basket.Status != models.BasketStatusOpen {
			return ErrBasketNotOpen
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if product.Stock <= 0 {
			return ErrOutOfStock
		}

		var item models.BasketItem
		inBasket := 0
		err = tx.Where("basket_id = ? AND product_id = ?", basket.BasketID, productID).First(&item).Error
		switch {
		case err == nil:
			inBasket = item.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			// new line
		default:
			return err
		}

		if inBasket+quantity > product.Stock {
			return &InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: product.Stock - inBasket,
			}
		}

		if inBasket > 0 {
			item.Quantity += quantity
			item.AddedAt = time.Now()
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		} else {
			item = models.BasketItem{
				BasketID:     basket.BasketID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.Image,
				UnitPrice:    product.Price,
				Quantity:     quantity,
				AddedAt:      time.Now(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return s.persist(tx, basket)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// UpdateItemQuantity sets a line's quantity to an absolute value. Zero removes
// the line.
func (s *BasketService) UpdateItemQuantity(ctx context.Context, userID string, productID uint, quantity int) (*models.Basket, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.activeBasket(tx, userID)
		if err != nil {
			return err
		}
		if basket.Status != models.BasketStatusOpen {
			return ErrBasketNotOpen
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if quantity > product.Stock {
			return &InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: product.Stock,
			}
		}

		var item models.BasketItem
		if err := tx.Where("basket_id = ? AND product_id = ?", basket.BasketID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotInBasket
			}
			return err
		}

		item.Quantity = quantity
		item.AddedAt = time.Now()
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		return s.persist(tx, basket)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// RemoveItem drops a product's line from the basket. Removing a product that
// is not in the basket is not an error.
func (s *BasketService) RemoveItem(ctx context.Context, userID string, productID uint) (*models.Basket, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.activeBasket(tx, userID)
		if err != nil {
			return err
		}
		if basket.Status != models.BasketStatusOpen {
			return ErrBasketNotOpen
		}

		if err := tx.Where("basket_id = ? AND product_id = ?", basket.BasketID, productID).
			Delete(&models.BasketItem{}).Error; err != nil {
			return err
		}

		return s.persist(tx, basket)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// Clear empties the basket's line items; the basket itself stays.
func (s *BasketService) Clear(ctx context.Context, userID string) (*models.Basket, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.activeBasket(tx, userID)
		if err != nil {
			return err
		}
		if basket.Status != models.BasketStatusOpen {
			return ErrBasketNotOpen
		}

		if err := tx.Where("basket_id = ?", basket.BasketID).Delete(&models.BasketItem{}).Error; err != nil {
			return err
		}

		return s.persist(tx, basket)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// ChangeStatus moves the basket along its lifecycle. Only the transitions in
// the table are accepted. A basket that finishes is deactivated and gets an
// order reference; the next access creates a fresh open basket.
func (s *BasketService) ChangeStatus(ctx context.Context, userID string, next models.BasketStatus) (*models.Basket, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var finished *models.Basket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := s.activeBasket(tx, userID)
		if err != nil {
			return err
		}
		if !CanTransition(basket.Status, next) {
			return &InvalidTransitionError{From: basket.Status, To: next}
		}

		basket.Status = next
		if next == models.BasketStatusFinished {
			basket.Active = false
			basket.Reference = orderReference()
		}
		if err := s.persist(tx, basket); err != nil {
			return err
		}
		if next == models.BasketStatusFinished {
			finished = basket
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finished != nil {
		s.publishFinished(ctx, finished)
		// The finished basket is history now; return it rather than the
		// fresh basket a reload would create.
		var out models.Basket
		if err := s.db.WithContext(ctx).Preload("Items").First(&out, "basket_id = ?", finished.BasketID).Error; err != nil {
			return nil, err
		}
		return &out, nil
	}
	return s.reload(ctx, userID)
}

// Summary returns totals for the active basket.
func (s *BasketService) Summary(ctx context.Context, userID string) (*Summary, error) {
	basket, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalItems: basket.TotalItems,
		TotalPrice: basket.TotalPrice,
		ItemCount:  len(basket.Items),
		Status:     basket.Status,
	}, nil
}

// History lists every basket the user ever had, newest first.
func (s *BasketService) History(ctx context.Context, userID string) ([]models.Basket, error) {
	var baskets []models.Basket
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, basket_id DESC").
		Find(&baskets).Error
	if err != nil {
		return nil, err
	}
	return baskets, nil
}

// ---- internals ----

// activeBasket finds the user's active basket inside tx, creating one lazily.
func (s *BasketService) activeBasket(tx *gorm.DB, userID string) (*models.Basket, error) {
	var basket models.Basket
	err := tx.Where("user_id = ? AND active = ?", userID, true).First(&basket).Error
	if err == nil {
		return &basket, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	basket = models.Basket{
		UserID:      userID,
		Active:      true,
		Status:      models.BasketStatusOpen,
		LastUpdated: time.Now(),
	}
	if err := tx.Create(&basket).Error; err != nil {
		return nil, err
	}
	return &basket, nil
}

// recompute rebuilds the derived totals from the line items and the catalog's
// current prices. A line whose product no longer exists contributes nothing
// and is flagged in the log.
func (s *BasketService) recompute(tx *gorm.DB, basket *models.Basket) error {
	var items []models.BasketItem
	if err := tx.Where("basket_id = ?", basket.BasketID).Find(&items).Error; err != nil {
		return err
	}

	var totalPrice float64
	var totalItems int
	for _, item := range items {
		var product models.Product
		if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn().
					Uint("basketId", basket.BasketID).
					Uint("productId", item.ProductID).
					Msg("Basket line references a missing product; skipped in totals")
				continue
			}
			return err
		}
		totalPrice += product.Price * float64(item.Quantity)
		totalItems += item.Quantity
	}

	basket.Items = items
	basket.TotalPrice = totalPrice
	basket.TotalItems = totalItems
	basket.LastUpdated = time.Now()
	return nil
}

// persist recomputes totals and writes the basket row guarded by its version.
// A version mismatch means another writer got there first.
func (s *BasketService) persist(tx *gorm.DB, basket *models.Basket) error {
	if err := s.recompute(tx, basket); err != nil {
		return err
	}

	res := tx.Model(&models.Basket{}).
		Where("basket_id = ? AND version = ?", basket.BasketID, basket.Version).
		Updates(map[string]interface{}{
			"status":       basket.Status,
			"active":       basket.Active,
			"reference":    basket.Reference,
			"total_price":  basket.TotalPrice,
			"total_items":  basket.TotalItems,
			"last_updated": basket.LastUpdated,
			"version":      basket.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	basket.Version++
	return nil
}

// reload fetches the active basket with items for returning to callers.
func (s *BasketService) reload(ctx context.Context, userID string) (*models.Basket, error) {
	var basket models.Basket
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND active = ?", userID, true).
		First(&basket).Error
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

func (s *BasketService) publishFinished(ctx context.Context, basket *models.Basket) {
	if s.bus == nil {
		return
	}
	event := OrderFinishedEvent{
		EventID:    uuid.NewString(),
		Reference:  basket.Reference,
		UserID:     basket.UserID,
		TotalPrice: basket.TotalPrice,
		TotalItems: basket.TotalItems,
		Items:      basket.Items,
		FinishedAt: time.Now(),
	}
	if err := s.bus.Publish(ctx, s.orderTopic, event); err != nil {
		log.Error().Err(err).Str("reference", basket.Reference).Msg("Failed to publish order finished event")
		return
	}
	log.Info().Str("reference", basket.Reference).Str("userId", basket.UserID).Msg("Order finished event published")
}

// orderReference builds a sortable order reference, e.g. 20250908130500-<uuid>.
func orderReference() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}
