package templateControllers

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/templateverse/marketplace-api/storage"
)

var assetBuckets = map[string]string{
	"image":  "template-images",
	"source": "template-sources",
}

// UploadTemplateAsset pushes a template image or source archive into the
// matching storage bucket and returns the public URL.
// POST /admin/templates/upload?type=image|source
func UploadTemplateAsset(store *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, ok := assetBuckets[c.DefaultQuery("type", "image")]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be image or source"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer file.Close()

		// Sanitize filename: remove any special chars
		re := regexp.MustCompile(`[^\w\d\-_\.]`)
		cleanName := re.ReplaceAllString(fileHeader.Filename, "_")
		objectPath := fmt.Sprintf("%d_%s", time.Now().Unix(), cleanName)

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		fileURL, err := store.Upload(c.Request.Context(), bucket, objectPath, contentType, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to upload file: %v", err)})
			return
		}

		log.Printf("Template asset uploaded: %s -> %s", fileHeader.Filename, fileURL)

		c.JSON(http.StatusOK, gin.H{
			"file_url": fileURL,
			"message":  "File uploaded successfully",
		})
	}
}
