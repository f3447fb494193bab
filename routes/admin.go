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

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires the API key
// middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, baskets *service.BasketService, cfg config.Config) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(cfg.AdminAPIKey))
	{
		// ──────────────── Products ────────────────
		adminGroup.GET("/products", productControllers.GetProducts(db))          // GET /admin/products
		adminGroup.POST("/products", productControllers.CreateProduct(db))       // POST /admin/products
		adminGroup.PUT("/products/:id", productControllers.UpdateProduct(db))    // PUT /admin/products/:id
		adminGroup.DELETE("/products/:id", productControllers.DeleteProduct(db)) // DELETE /admin/products/:id

		// ──────────────── Categories ────────────────
		adminGroup.GET("/categories", categoryControllers.GetAllCategories(db))       // GET /admin/categories
		adminGroup.POST("/categories", categoryControllers.CreateCategory(db))        // POST /admin/categories
		adminGroup.PUT("/categories/:id", categoryControllers.UpdateCategory(db))     // PUT /admin/categories/:id
		adminGroup.DELETE("/categories/:id", categoryControllers.DeleteCategory(db))  // DELETE /admin/categories/:id

		// ──────────────── Users + Baskets ────────────────
		adminGroup.GET("/users", userControllers.GetAllUsers(db))                          // GET /admin/users
		adminGroup.GET("/baskets/:user_id", basketControllers.GetAdminUserBaskets(baskets))      // GET /admin/baskets/:user_id
		adminGroup.PUT("/baskets/:user_id/status", basketControllers.AdminChangeStatus(baskets)) // PUT /admin/baskets/:user_id/status
	}
}
