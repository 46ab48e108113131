package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	checkoutControllers "github.com/templateverse/marketplace-api/controllers/checkout"
	"github.com/templateverse/marketplace-api/storage"
)

// SetupRoutes is the single entry-point that wires up the public catalog,
// user, checkout, admin, and ops route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, broker *checkoutControllers.Broker, uploads *storage.Client) {
	// Public catalog (no middleware)
	SetupPublicRoutes(r, db)

	// User routes (JWT-protected)
	SetupUserRoutes(r, db)

	// Checkout brokers (JWT-protected)
	SetupCheckoutRoutes(r, broker)

	// Admin routes (JWT + admin role)
	SetupAdminRoutes(r, db, uploads)

	// Ops routes (API-key-protected)
	SetupOpsRoutes(r, db)
}
