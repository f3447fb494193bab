package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BehnamMohamadi/mini-shop-sub000/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Category{},
		&models.Basket{},
		&models.BasketItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, db.Create(&product).Error)
	return product
}

type fakeBus struct {
	mu     sync.Mutex
	events []OrderFinishedEvent
	keys   []string
}

func (f *fakeBus) Publish(_ context.Context, routingKey string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, routingKey)
	f.events = append(f.events, payload.(OrderFinishedEvent))
	return nil
}

func TestGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()

	basket, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusOpen, basket.Status)
	assert.True(t, basket.Active)
	assert.Empty(t, basket.Items)
	assert.Zero(t, basket.TotalItems)
	assert.Zero(t, basket.TotalPrice)

	again, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, basket.BasketID, again.BasketID)
}

func TestAddItemMergesLines(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "mug", 4.5, 10)

	_, err := svc.AddItem(ctx, "u1", p.ID, 2)
	require.NoError(t, err)

	basket, err := svc.AddItem(ctx, "u1", p.ID, 3)
	require.NoError(t, err)

	require.Len(t, basket.Items, 1)
	assert.Equal(t, 5, basket.Items[0].Quantity)
	assert.Equal(t, 5, basket.TotalItems)
	assert.InDelta(t, 22.5, basket.TotalPrice, 1e-9)
}

func TestAddItemStockBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "lamp", 30, 5)

	_, err := svc.AddItem(ctx, "u1", p.ID, 5)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "u1", p.ID, 1)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, 1, stockErr.Requested)

	_, err = svc.AddItem(ctx, "u1", p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItemProductChecks(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "u1", 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	empty := seedProduct(t, db, "sold out", 10, 0)
	_, err = svc.AddItem(ctx, "u1", empty.ID, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestUpdateQuantityFlow(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "chair", 12, 10)

	basket, err := svc.AddItem(ctx, "u1", p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, basket.TotalItems)

	basket, err = svc.UpdateItemQuantity(ctx, "u1", p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, basket.TotalItems)
	assert.InDelta(t, 12, basket.TotalPrice, 1e-9)

	// quantity zero removes the line
	basket, err = svc.UpdateItemQuantity(ctx, "u1", p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, basket.Items)
	assert.Zero(t, basket.TotalItems)
	assert.Zero(t, basket.TotalPrice)
}

func TestUpdateQuantityErrors(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "desk", 100, 4)
	other := seedProduct(t, db, "shelf", 50, 4)

	_, err := svc.AddItem(ctx, "u1", p.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, "u1", 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.UpdateItemQuantity(ctx, "u1", other.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotInBasket)

	var stockErr *InsufficientStockError
	_, err = svc.UpdateItemQuantity(ctx, "u1", p.ID, 5)
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Available)

	_, err = svc.UpdateItemQuantity(ctx, "u1", p.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "vase", 8, 3)

	_, err := svc.AddItem(ctx, "u1", p.ID, 2)
	require.NoError(t, err)

	basket, err := svc.RemoveItem(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Empty(t, basket.Items)

	// removing again is not an error and changes nothing
	again, err := svc.RemoveItem(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Items)
	assert.Equal(t, basket.TotalItems, again.TotalItems)
	assert.Equal(t, basket.TotalPrice, again.TotalPrice)
}

func TestMutationsGatedOnOpenStatus(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "rug", 60, 10)

	_, err := svc.AddItem(ctx, "u1", p.ID, 1)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, "u1", models.BasketStatusPending)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "u1", p.ID, 1)
	assert.ErrorIs(t, err, ErrBasketNotOpen)
	_, err = svc.UpdateItemQuantity(ctx, "u1", p.ID, 2)
	assert.ErrorIs(t, err, ErrBasketNotOpen)
	_, err = svc.RemoveItem(ctx, "u1", p.ID)
	assert.ErrorIs(t, err, ErrBasketNotOpen)
	_, err = svc.Clear(ctx, "u1")
	assert.ErrorIs(t, err, ErrBasketNotOpen)

	// pending -> open makes the basket editable again
	_, err = svc.ChangeStatus(ctx, "u1", models.BasketStatusOpen)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", p.ID, 1)
	require.NoError(t, err)
}

func TestInvalidTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()

	var transitionErr *InvalidTransitionError

	// open -> finished skips payment
	_, err := svc.ChangeStatus(ctx, "u1", models.BasketStatusFinished)
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.BasketStatusOpen, transitionErr.From)
	assert.Equal(t, models.BasketStatusFinished, transitionErr.To)

	// open -> open is not a transition
	_, err = svc.ChangeStatus(ctx, "u1", models.BasketStatusOpen)
	assert.ErrorAs(t, err, &transitionErr)
}

func TestFinishedBasketBecomesHistory(t *testing.T) {
	db := newTestDB(t)
	bus := &fakeBus{}
	svc := New(db, bus, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "teapot", 25, 10)

	first, err := svc.AddItem(ctx, "u1", p.ID, 2)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, "u1", models.BasketStatusPending)
	require.NoError(t, err)

	finished, err := svc.ChangeStatus(ctx, "u1", models.BasketStatusFinished)
	require.NoError(t, err)
	assert.Equal(t, first.BasketID, finished.BasketID)
	assert.Equal(t, models.BasketStatusFinished, finished.Status)
	assert.False(t, finished.Active)
	assert.NotEmpty(t, finished.Reference)
	require.Len(t, finished.Items, 1)

	// the order event went out
	require.Len(t, bus.events, 1)
	assert.Equal(t, []string{"basket.finished"}, bus.keys)
	assert.Equal(t, finished.Reference, bus.events[0].Reference)
	assert.Equal(t, "u1", bus.events[0].UserID)
	assert.Equal(t, 2, bus.events[0].TotalItems)

	// next access starts a fresh open basket
	fresh, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, finished.BasketID, fresh.BasketID)
	assert.Equal(t, models.BasketStatusOpen, fresh.Status)
	assert.Empty(t, fresh.Items)

	// history lists both generations, newest first
	history, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, fresh.BasketID, history[0].BasketID)
	assert.Equal(t, finished.BasketID, history[1].BasketID)
	require.Len(t, history[1].Items, 1)
	assert.Equal(t, p.ID, history[1].Items[0].ProductID)
}

func TestRecomputeUsesCurrentPrice(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "kettle", 10, 10)

	basket, err := svc.AddItem(ctx, "u1", p.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 20, basket.TotalPrice, 1e-9)

	// catalog price changes between mutations
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 15).Error)

	basket, err = svc.AddItem(ctx, "u1", p.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 45, basket.TotalPrice, 1e-9)
	// the line keeps the price it was added at
	assert.InDelta(t, 10, basket.Items[0].UnitPrice, 1e-9)
}

func TestDanglingProductSkippedInTotals(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	keep := seedProduct(t, db, "plate", 5, 10)
	gone := seedProduct(t, db, "bowl", 7, 10)

	_, err := svc.AddItem(ctx, "u1", keep.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", gone.ID, 1)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Product{}, gone.ID).Error)

	basket, err := svc.UpdateItemQuantity(ctx, "u1", keep.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, basket.TotalItems)
	assert.InDelta(t, 15, basket.TotalPrice, 1e-9)
	// the dangling line is still there, it just counts for nothing
	assert.Len(t, basket.Items, 2)
}

func TestClear(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p1 := seedProduct(t, db, "fork", 1, 10)
	p2 := seedProduct(t, db, "spoon", 2, 10)

	_, err := svc.AddItem(ctx, "u1", p1.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", p2.ID, 3)
	require.NoError(t, err)

	basket, err := svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, basket.Items)
	assert.Zero(t, basket.TotalItems)
	assert.Zero(t, basket.TotalPrice)
	assert.Equal(t, models.BasketStatusOpen, basket.Status)
}

func TestSummary(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p1 := seedProduct(t, db, "pen", 2, 10)
	p2 := seedProduct(t, db, "pad", 3, 10)

	_, err := svc.AddItem(ctx, "u1", p1.ID, 4)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", p2.ID, 1)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalItems)
	assert.Equal(t, 2, summary.ItemCount)
	assert.InDelta(t, 11, summary.TotalPrice, 1e-9)
	assert.Equal(t, models.BasketStatusOpen, summary.Status)
}

func TestConcurrentAddsCannotExceedStock(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "limited", 20, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, "u1", p.ID, 5)
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			var stockErr *InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the concurrent adds must be rejected")

	basket, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, basket.TotalItems)
}

func TestBasketsAreIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, nil, "basket.finished")
	ctx := context.Background()
	p := seedProduct(t, db, "shared", 9, 10)

	_, err := svc.AddItem(ctx, "alice", p.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "bob", p.ID, 3)
	require.NoError(t, err)

	alice, err := svc.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	bob, err := svc.GetOrCreate(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, alice.TotalItems)
	assert.Equal(t, 3, bob.TotalItems)
	assert.NotEqual(t, alice.BasketID, bob.BasketID)
}
