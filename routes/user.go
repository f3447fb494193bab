package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BehnamMohamadi/mini-shop-sub000/config"
	basketControllers "github.com/BehnamMohamadi/mini-shop-sub000/controllers/basket"
	categoryControllers "github.com/BehnamMohamadi/mini-shop-sub000/controllers/category"
	productControllers "github.com/BehnamMohamadi/mini-shop-sub000/controllers/product"
	userControllers "github.com/BehnamMohamadi/mini-shop-sub000/controllers/user"
	"github.com/BehnamMohamadi/mini-shop-sub000/middleware"
	"github.com/BehnamMohamadi/mini-shop-sub000/service"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, baskets *service.BasketService, cfg config.Config) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(cfg.JWTSecret))
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/", userControllers.GetUser(db))    // GET /user/
		userGroup.PUT("/", userControllers.UpdateUser(db)) // PUT /user/

		// ──────────────── Basket ────────────────
		basketGroup := userGroup.Group("/basket")
		{
			basketGroup.GET("/", basketControllers.GetBasket(baskets))                        // GET /user/basket
			basketGroup.GET("/summary", basketControllers.GetSummary(baskets))                // GET /user/basket/summary
			basketGroup.POST("/items", basketControllers.AddItem(baskets))                    // POST /user/basket/items
			basketGroup.PUT("/items/:product_id", basketControllers.UpdateItem(baskets))      // PUT /user/basket/items/:product_id
			basketGroup.DELETE("/items/:product_id", basketControllers.RemoveItem(baskets))   // DELETE /user/basket/items/:product_id
			basketGroup.DELETE("/", basketControllers.ClearBasket(baskets))                   // DELETE /user/basket
			basketGroup.POST("/checkout", basketControllers.Checkout(baskets))                // POST /user/basket/checkout
			basketGroup.POST("/pay", basketControllers.Pay(baskets))                          // POST /user/basket/pay
			basketGroup.POST("/cancel", basketControllers.Cancel(baskets))                    // POST /user/basket/cancel
		}

		// ──────────────── Order History ────────────────
		userGroup.GET("/orders", basketControllers.GetHistory(baskets)) // GET /user/orders

		// ──────────────── Browse Products ────────────────
		userGroup.GET("/products", productControllers.GetProducts(db))        // GET /user/products
		userGroup.GET("/products/:id", productControllers.GetProductByID(db)) // GET /user/products/:id

		// ──────────────── Browse Categories + Products ────────────────
		userGroup.GET("/categories", categoryControllers.GetAllCategoriesWithProducts(db)) // GET /user/categories
	}
}
