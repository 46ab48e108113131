package templateControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/models"
)

// GET /admin/templates/export-excel
func ExportTemplatesToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var templates []models.Template
		if err := db.Order("created_at").Find(&templates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Templates")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"ID", "Title", "Description", "Category", "Price", "ExtendedPrice",
			"ImageURL", "Featured", "Rating", "Sales", "TechStack", "Features",
			"DemoURL", "SourceFileURL", "YoutubeID", "CreatedAt", "UpdatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, t := range templates {
			row := sheet.AddRow()
			row.AddCell().SetValue(t.ID)
			row.AddCell().SetValue(t.Title)
			row.AddCell().SetValue(t.Description)
			row.AddCell().SetValue(t.Category)
			row.AddCell().SetValue(t.Price)
			row.AddCell().SetValue(t.ExtendedPrice)
			row.AddCell().SetValue(t.ImageURL)
			row.AddCell().SetValue(strconv.FormatBool(t.Featured))
			row.AddCell().SetValue(t.Rating)
			row.AddCell().SetValue(t.Sales)
			row.AddCell().SetValue(strings.Join(t.TechStack, ","))
			row.AddCell().SetValue(strings.Join(t.Features, ","))
			row.AddCell().SetValue(t.DemoURL)
			row.AddCell().SetValue(t.SourceFileURL)
			row.AddCell().SetValue(t.YoutubeID)
			row.AddCell().SetValue(t.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(t.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=templates.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

// POST /admin/templates/import-excel
// Rows with an existing ID update that template; rows without one create a
// new template. Rows missing a title or a parseable price are skipped.
func ImportTemplatesFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse Excel file"})
			return
		}

		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		sheet := xlFile.Sheets[0]
		createdCount, updatedCount, skippedCount := 0, 0, 0

		for i := 1; i < sheet.MaxRow; i++ {
			row := sheet.Rows[i]
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = strings.TrimSpace(cell.String())
			}

			parsed, ok := parseTemplateRow(cells)
			if !ok {
				skippedCount++
				continue
			}

			if parsed.ID != "" {
				var existing models.Template
				if err := db.First(&existing, "id = ?", parsed.ID).Error; err == nil {
					applyTemplateRow(&existing, parsed)
					if err := db.Save(&existing).Error; err == nil {
						updatedCount++
						continue
					}
					skippedCount++
					continue
				}
			}

			parsed.ID = uuid.NewString()
			if err := db.Create(&parsed).Error; err == nil {
				createdCount++
			} else {
				skippedCount++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": createdCount,
			"updated_count": updatedCount,
			"skipped_count": skippedCount,
		})
	}
}

// parseTemplateRow maps an import row onto a template, column for column
// the layout the exporter writes (including Rating and Sales, so an
// export→import round-trip preserves them). Rows missing a title or a
// parseable price are rejected.
func parseTemplateRow(cells []string) (models.Template, bool) {
	get := func(index int) string {
		if index < len(cells) {
			return cells[index]
		}
		return ""
	}

	title := get(1)
	price, priceErr := strconv.ParseFloat(get(4), 64)
	if title == "" || priceErr != nil {
		return models.Template{}, false
	}

	extendedPrice, _ := strconv.ParseFloat(get(5), 64)
	rating, _ := strconv.ParseFloat(get(8), 64)
	sales, _ := strconv.Atoi(get(9))

	return models.Template{
		ID:            get(0),
		Title:         title,
		Description:   get(2),
		Category:      get(3),
		Price:         price,
		ExtendedPrice: extendedPrice,
		ImageURL:      get(6),
		Featured:      strings.EqualFold(get(7), "true"),
		Rating:        rating,
		Sales:         sales,
		TechStack:     splitList(get(10)),
		Features:      splitList(get(11)),
		DemoURL:       get(12),
		SourceFileURL: get(13),
		YoutubeID:     get(14),
	}, true
}

func applyTemplateRow(dst *models.Template, src models.Template) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Category = src.Category
	dst.Price = src.Price
	dst.ExtendedPrice = src.ExtendedPrice
	dst.ImageURL = src.ImageURL
	dst.Featured = src.Featured
	dst.Rating = src.Rating
	dst.Sales = src.Sales
	dst.TechStack = src.TechStack
	dst.Features = src.Features
	dst.DemoURL = src.DemoURL
	dst.SourceFileURL = src.SourceFileURL
	dst.YoutubeID = src.YoutubeID
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
