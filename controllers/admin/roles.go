package adminControllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/templateverse/marketplace-api/models"
)

type GrantRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=admin"`
}

// GET /ops/roles
func ListRoles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var roles []models.UserRole
		if err := db.Order("created_at DESC").Find(&roles).Error; err != nil {
			log.Println("❌ Failed to fetch roles:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch roles"})
			return
		}
		c.JSON(http.StatusOK, roles)
	}
}

// POST /ops/roles
func GrantRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		role := models.UserRole{UserID: req.UserID, Role: req.Role}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
			log.Println("❌ Failed to grant role:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant role"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Role granted"})
	}
}

// DELETE /ops/roles
func RevokeRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := db.Where("user_id = ? AND role = ?", req.UserID, req.Role).
			Delete(&models.UserRole{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke role"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Role revoked"})
	}
}
