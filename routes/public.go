package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	templateControllers "github.com/templateverse/marketplace-api/controllers/template"
)

// SetupPublicRoutes registers the unauthenticated catalog endpoints.
func SetupPublicRoutes(r *gin.Engine, db *gorm.DB) {
	templates := r.Group("/templates")
	{
		templates.GET("", templateControllers.GetTemplates(db))
		templates.GET("/categories", templateControllers.GetCategories(db))
		templates.GET("/:id", templateControllers.GetTemplateByID(db))
	}
}
