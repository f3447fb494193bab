package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BehnamMohamadi/mini-shop-sub000/config"
	"github.com/BehnamMohamadi/mini-shop-sub000/service"
)

// SetupRoutes is the single entry-point that wires up Auth, User, and Admin
// route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, baskets *service.BasketService, cfg config.Config) {
	// Public auth routes (no middleware)
	SetupAuthRoutes(r, db, cfg)

	// User routes (JWT-protected)
	SetupUserRoutes(r, db, baskets, cfg)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db, baskets, cfg)
}
