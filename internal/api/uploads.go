package api

import (
	"bookcourier/internal/media" // Image storage
	"net/http"                   // HTTP status codes
	"path/filepath"              // Extension checks
	"strings"                    // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// maxImageSize caps a cover upload
const maxImageSize = 5 << 20

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// UploadImageHandler stores a cover image from the multipart field "image"
func UploadImageHandler(up media.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if up == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image upload is not configured"})
			return
		}
		hdr, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if hdr.Size > maxImageSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image must be 5MB or smaller"})
			return
		}
		if !imageExts[strings.ToLower(filepath.Ext(hdr.Filename))] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only jpg, png, webp and gif images are accepted"})
			return
		}
		f, err := hdr.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image"})
			return
		}
		defer f.Close()
		url, err := up.Upload(c.Request.Context(), hdr.Filename, f)
		if err != nil {
			logrus.WithFields(logrus.Fields{"file": hdr.Filename, "error": err.Error()}).Error("Image upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}
