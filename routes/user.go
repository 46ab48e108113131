package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/cart"
	cartControllers "github.com/templateverse/marketplace-api/controllers/cart"
	checkoutControllers "github.com/templateverse/marketplace-api/controllers/checkout"
	favoritesControllers "github.com/templateverse/marketplace-api/controllers/favorites"
	orderControllers "github.com/templateverse/marketplace-api/controllers/order"
	"github.com/templateverse/marketplace-api/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	carts := cart.NewGormRepository(db)
	catalog := checkoutControllers.NewGormCatalog(db)

	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(carts))
			cartGroup.POST("", cartControllers.UpdateCartItem(carts, catalog))
			cartGroup.POST("/all-access", cartControllers.SetAllAccess(carts))
			cartGroup.PATCH("/:template_id/license", cartControllers.UpdateCartLicense(carts, catalog))
			cartGroup.DELETE("/:template_id", cartControllers.DeleteCartItem(carts))
			cartGroup.DELETE("", cartControllers.ClearUserCart(carts))
		}

		// ──────────────── Favorites ────────────────
		userGroup.GET("/favorites", favoritesControllers.GetFavorites(db))
		userGroup.POST("/favorites/:template_id/toggle", favoritesControllers.ToggleFavorite(db))

		// ──────────────── All-Access Pass ────────────────
		userGroup.GET("/all-access-pass", favoritesControllers.GetAllAccessPass(db))

		// ──────────────── Order History ────────────────
		userGroup.GET("/orders", orderControllers.GetUserOrdersHandler(db))
		userGroup.GET("/orders/:orderID", orderControllers.GetOrderWithItemsHandler(db))
	}
}
