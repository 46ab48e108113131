package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminControllers "github.com/templateverse/marketplace-api/controllers/admin"
	"github.com/templateverse/marketplace-api/middleware"
)

// SetupOpsRoutes registers operator endpoints guarded by the shared API
// key: role grants and the payment reconciliation queue.
func SetupOpsRoutes(r *gin.Engine, db *gorm.DB) {
	opsGroup := r.Group("/ops")
	opsGroup.Use(middleware.ValidateAPIKey)
	{
		opsGroup.GET("/roles", adminControllers.ListRoles(db))
		opsGroup.POST("/roles", adminControllers.GrantRole(db))
		opsGroup.DELETE("/roles", adminControllers.RevokeRole(db))

		opsGroup.GET("/reconciliations", adminControllers.ListReconciliations(db))
		opsGroup.POST("/reconciliations/:id/resolve", adminControllers.ResolveReconciliation(db))
	}
}
