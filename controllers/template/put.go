package templateControllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

type UpdateTemplateInput struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Category      *string   `json:"category"`
	Price         *float64  `json:"price"`
	ExtendedPrice *float64  `json:"extended_price"`
	ImageURL      *string   `json:"image_url"`
	GalleryImages *[]string `json:"gallery_images"`
	Rating        *float64  `json:"rating"`
	Sales         *int      `json:"sales"`
	Featured      *bool     `json:"featured"`
	TechStack     *[]string `json:"tech_stack"`
	Features      *[]string `json:"features"`
	DemoURL       *string   `json:"demo_url"`
	SourceFileURL *string   `json:"source_file_url"`
	YoutubeID     *string   `json:"youtube_id"`
}

// PUT /admin/templates/:id
func UpdateTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var template models.Template
		if err := db.First(&template, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		var input UpdateTemplateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if input.Title != nil {
			template.Title = *input.Title
		}
		if input.Description != nil {
			template.Description = *input.Description
		}
		if input.Category != nil {
			template.Category = *input.Category
		}
		if input.Price != nil {
			template.Price = *input.Price
		}
		if input.ExtendedPrice != nil {
			template.ExtendedPrice = *input.ExtendedPrice
		}
		if input.ImageURL != nil {
			template.ImageURL = *input.ImageURL
		}
		if input.GalleryImages != nil {
			template.GalleryImages = *input.GalleryImages
		}
		if input.Rating != nil {
			template.Rating = *input.Rating
		}
		if input.Sales != nil {
			template.Sales = *input.Sales
		}
		if input.Featured != nil {
			template.Featured = *input.Featured
		}
		if input.TechStack != nil {
			template.TechStack = *input.TechStack
		}
		if input.Features != nil {
			template.Features = *input.Features
		}
		if input.DemoURL != nil {
			template.DemoURL = *input.DemoURL
		}
		if input.SourceFileURL != nil {
			template.SourceFileURL = *input.SourceFileURL
		}
		if input.YoutubeID != nil {
			template.YoutubeID = *input.YoutubeID
		}

		if err := db.Save(&template).Error; err != nil {
			log.Println("❌ Failed to update template:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
			return
		}

		c.JSON(http.StatusOK, template)
	}
}
