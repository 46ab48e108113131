package templateControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

// GET /templates
// Filters: featured=true, category=<name>, limit=<n>. Ordered by sales,
// the storefront's default ranking.
func GetTemplates(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Template{})

		if c.Query("featured") == "true" {
			query = query.Where("featured = ?", true)
		}
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if limitStr := c.Query("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			query = query.Limit(limit)
		}

		var templates []models.Template
		if err := query.Order("sales DESC").Find(&templates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
			return
		}
		c.JSON(http.StatusOK, templates)
	}
}

// GET /templates/:id
func GetTemplateByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var template models.Template
		if err := db.First(&template, "id = ?", c.Param("id")).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch template"})
			return
		}
		c.JSON(http.StatusOK, template)
	}
}

// GET /templates/categories
func GetCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []string
		if err := db.Model(&models.Template{}).
			Distinct("category").
			Order("category").
			Pluck("category", &categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
