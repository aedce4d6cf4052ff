package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// ReviewRequest is the body of POST /books/:id/review
type ReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"` // Star rating
	Text   string `json:"text" binding:"required"`               // Review body
}

// ListReviewsHandler returns the reviews of a book, newest first
func ListReviewsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviews := []domain.Review{}
		if err := db.Where("book_id = ?", c.Param("id")).Order("created_at desc").Find(&reviews).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}

// CreateReviewHandler attaches the caller's review to a book
func CreateReviewHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rating (1-5) and review text are required"})
			return
		}
		book, ok := findBook(c, db, c.Param("id"))
		if !ok {
			return
		}
		user := middleware.CurrentUser(c)
		review := domain.Review{
			BookID:    book.ID,                     // Reviewed book
			Rating:    req.Rating,                  // Stars
			Text:      strings.TrimSpace(req.Text), // Body
			UserEmail: user.Email,                  // Author
			UserName:  user.Name,                   // Author name
			UserImage: user.Image,                  // Author photo
		}
		if err := db.Create(&review).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save review"})
			return
		}
		logrus.WithFields(logrus.Fields{"book_id": book.ID, "user": user.Email, "rating": req.Rating}).Info("Review posted")
		c.JSON(http.StatusCreated, review)
	}
}
