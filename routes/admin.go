package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/templateverse/marketplace-api/controllers/order"
	templateControllers "github.com/templateverse/marketplace-api/controllers/template"
	"github.com/templateverse/marketplace-api/middleware"
	"github.com/templateverse/marketplace-api/storage"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires a valid
// JWT whose user carries the admin role.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, uploads *storage.Client) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateToken, middleware.RequireAdmin(db))
	{
		// ─────────── Template Management ───────────
		templateAdmin := adminGroup.Group("/templates")
		{
			templateAdmin.POST("", templateControllers.CreateTemplate(db))
			templateAdmin.PUT("/:id", templateControllers.UpdateTemplate(db))
			templateAdmin.DELETE("/:id", templateControllers.DeleteTemplate(db))
			templateAdmin.POST("/import-excel", templateControllers.ImportTemplatesFromExcel(db))
			templateAdmin.GET("/export-excel", templateControllers.ExportTemplatesToExcel(db))
			if uploads != nil {
				templateAdmin.POST("/upload", templateControllers.UploadTemplateAsset(uploads))
			}
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(db))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
			orderAdmin.DELETE("/:orderID", orderControllers.DeleteOrderHandler(db))
		}

		// websocket endpoint for real-time order updates
		adminGroup.GET("/ws/orders", orderControllers.OrderWebSocketHandler)
	}
}
