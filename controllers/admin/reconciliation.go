package adminControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

// GET /ops/reconciliations?resolved=true|false
func ListReconciliations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.PaymentReconciliation{}).Order("created_at DESC")

		switch c.Query("resolved") {
		case "true":
			query = query.Where("resolved = ?", true)
		case "false", "":
			query = query.Where("resolved = ?", false)
		}

		var recs []models.PaymentReconciliation
		if err := query.Find(&recs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reconciliations"})
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

// POST /ops/reconciliations/:id/resolve
// Manual resolution for a row the worker cannot repair, e.g. after the
// payment was refunded out of band.
func ResolveReconciliation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Model(&models.PaymentReconciliation{}).
			Where("id = ?", c.Param("id")).
			Update("resolved", true)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve reconciliation"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reconciliation not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reconciliation resolved"})
	}
}
