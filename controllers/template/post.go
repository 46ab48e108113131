package templateControllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

type TemplateInput struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Category      string   `json:"category" binding:"required"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	ExtendedPrice float64  `json:"extended_price"`
	ImageURL      string   `json:"image_url"`
	GalleryImages []string `json:"gallery_images"`
	Featured      bool     `json:"featured"`
	TechStack     []string `json:"tech_stack"`
	Features      []string `json:"features"`
	DemoURL       string   `json:"demo_url"`
	SourceFileURL string   `json:"source_file_url"`
	YoutubeID     string   `json:"youtube_id"`
}

// POST /admin/templates
func CreateTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input TemplateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		template := models.Template{
			ID:            uuid.NewString(),
			Title:         input.Title,
			Description:   input.Description,
			Category:      input.Category,
			Price:         input.Price,
			ExtendedPrice: input.ExtendedPrice,
			ImageURL:      input.ImageURL,
			GalleryImages: input.GalleryImages,
			Featured:      input.Featured,
			TechStack:     input.TechStack,
			Features:      input.Features,
			DemoURL:       input.DemoURL,
			SourceFileURL: input.SourceFileURL,
			YoutubeID:     input.YoutubeID,
		}

		if err := db.Create(&template).Error; err != nil {
			log.Println("❌ Failed to create template:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
			return
		}

		c.JSON(http.StatusCreated, template)
	}
}
