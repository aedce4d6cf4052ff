package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Upsert clauses
)

// MessageAlreadyInWishlist answers a repeated add
const MessageAlreadyInWishlist = "already in wishlist"

// WishlistRequest is the body of POST /wishlist
type WishlistRequest struct {
	BookID string `json:"bookId" binding:"required"` // Book to save
}

// MyWishlistHandler returns the caller's saved books
func MyWishlistHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := []domain.WishlistItem{}
		email := middleware.CurrentUser(c).Email
		if err := db.Preload("Book").Where("user_email = ?", email).Order("created_at desc").Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wishlist"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// AddWishlistHandler saves a book once; repeated adds report it instead of duplicating
func AddWishlistHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bookId is required"})
			return
		}
		book, ok := findBook(c, db, req.BookID)
		if !ok {
			return
		}
		email := middleware.CurrentUser(c).Email
		item := domain.WishlistItem{UserEmail: email, BookID: book.ID}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item) // The unique (user, book) index settles races
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wishlist"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusOK, gin.H{"message": MessageAlreadyInWishlist, "inserted": false}) // Nothing to add
			return
		}
		logrus.WithFields(logrus.Fields{"user": email, "book_id": book.ID}).Info("Book added to wishlist")
		c.JSON(http.StatusCreated, gin.H{"message": "added to wishlist", "inserted": true, "_id": item.ID})
	}
}

// RemoveWishlistHandler deletes a saved book by its book id
func RemoveWishlistHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := middleware.CurrentUser(c).Email
		res := db.Where("user_email = ? AND book_id = ?", email, c.Param("bookId")).Delete(&domain.WishlistItem{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wishlist"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Book is not in your wishlist"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}
