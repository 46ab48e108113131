package favoritesControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

// GET /user/favorites
func GetFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var templateIDs []string
		if err := db.Model(&models.Favorite{}).
			Where("user_id = ?", userID).
			Pluck("template_id", &templateIDs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": templateIDs})
	}
}

// POST /user/favorites/:template_id/toggle
// Adds the favorite when absent, removes it when present.
func ToggleFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		templateID := c.Param("template_id")

		result := db.Where("user_id = ? AND template_id = ?", userID, templateID).
			Delete(&models.Favorite{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle favorite"})
			return
		}
		if result.RowsAffected > 0 {
			c.JSON(http.StatusOK, gin.H{"favorited": false})
			return
		}

		fav := models.Favorite{UserID: userID, TemplateID: templateID}
		if err := db.Create(&fav).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle favorite"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorited": true})
	}
}

// GET /user/all-access-pass
func GetAllAccessPass(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var pass models.AllAccessPass
		err := db.First(&pass, "user_id = ?", userID).Error
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{"pass": nil})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch all-access pass"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pass": pass})
	}
}
