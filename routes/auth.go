package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BehnamMohamadi/mini-shop-sub000/auth"
	"github.com/BehnamMohamadi/mini-shop-sub000/config"
)

// SetupAuthRoutes registers the public "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.Register(db, cfg.JWTSecret)) // POST /auth/register
		authGroup.POST("/login", auth.Login(db, cfg.JWTSecret))       // POST /auth/login
	}
}
