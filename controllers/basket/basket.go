package basketControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BehnamMohamadi/mini-shop-sub000/models"
	"github.com/BehnamMohamadi/mini-shop-sub000/service"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type UpdateItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	var transitionErr *service.InvalidTransitionError

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product does not exist"})
	case errors.Is(err, service.ErrItemNotInBasket):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item is not in the basket"})
	case errors.Is(err, service.ErrBasketNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": "Basket is not open for modification"})
	case errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Product is out of stock"})
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
	case errors.Is(err, service.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": "Basket was modified concurrently, please retry"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Insufficient stock",
			"available": stockErr.Available,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Basket operation failed"})
	}
}

func userIDFrom(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

func productIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

// GET /user/basket
func GetBasket(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		basket, err := svc.GetOrCreate(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// GET /user/basket/summary
func GetSummary(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		summary, err := svc.Summary(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// POST /user/basket/items
func AddItem(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		basket, err := svc.AddItem(c.Request.Context(), userID, input.ProductID, input.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// PUT /user/basket/items/:product_id
func UpdateItem(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		productID, ok := productIDParam(c)
		if !ok {
			return
		}

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		basket, err := svc.UpdateItemQuantity(c.Request.Context(), userID, productID, *input.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// DELETE /user/basket/items/:product_id
func RemoveItem(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		productID, ok := productIDParam(c)
		if !ok {
			return
		}

		basket, err := svc.RemoveItem(c.Request.Context(), userID, productID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// DELETE /user/basket
func ClearBasket(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		basket, err := svc.Clear(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// POST /user/basket/checkout — open -> pending
func Checkout(svc *service.BasketService) gin.HandlerFunc {
	return changeStatus(svc, models.BasketStatusPending)
}

// POST /user/basket/pay — pending -> finished (simulated payment flip)
func Pay(svc *service.BasketService) gin.HandlerFunc {
	return changeStatus(svc, models.BasketStatusFinished)
}

// POST /user/basket/cancel — pending -> open
func Cancel(svc *service.BasketService) gin.HandlerFunc {
	return changeStatus(svc, models.BasketStatusOpen)
}

func changeStatus(svc *service.BasketService, next models.BasketStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		basket, err := svc.ChangeStatus(c.Request.Context(), userID, next)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// GET /user/orders
func GetHistory(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		baskets, err := svc.History(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, baskets)
	}
}

type ChangeStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// PUT /admin/baskets/:user_id/status — admin-driven lifecycle move, same
// transition rules as the user flow
func AdminChangeStatus(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		var input ChangeStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		status, ok := service.ParseStatus(input.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown basket status"})
			return
		}

		basket, err := svc.ChangeStatus(c.Request.Context(), userID, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, basket)
	}
}

// GET /admin/baskets/:user_id — admin inspection of any user's history
func GetAdminUserBaskets(svc *service.BasketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}
		baskets, err := svc.History(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, baskets)
	}
}
