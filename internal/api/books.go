package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"bookcourier/internal/utils"      // Cache helpers
	"context"                         // Context for Redis operations
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation
	"time"                            // Cache TTL

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Prices
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	booksCachePrefix = "books:"         // Every cached book list lives under this prefix
	booksCacheTTL    = 60 * time.Second // Book list cache lifetime
	latestLimit      = 6                // Size of the latest books shelf
)

// Sort orders accepted by GET /books
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNewest    = "newest"
)

// BookRequest is the body of POST /books and PATCH /books/:id
type BookRequest struct {
	Title       string          `json:"title" binding:"required"`                               // Title must be provided
	Author      string          `json:"author" binding:"required"`                              // Author must be provided
	Genre       string          `json:"genre"`                                                  // Optional genre
	Description string          `json:"description" binding:"required,min=10"`                  // At least 10 characters
	Price       decimal.Decimal `json:"price"`                                                  // Must be positive
	Image       string          `json:"image" binding:"omitempty,url"`                          // Cover URL
	Status      string          `json:"status" binding:"omitempty,oneof=published unpublished"` // Defaults to published
	Quantity    int             `json:"quantity" binding:"gte=0"`                               // Copies available
}

// StatusRequest is the body of PATCH /books/:id/status
type StatusRequest struct {
	IsPublished *bool `json:"isPublished" binding:"required"` // New publication state
}

// ListBooksHandler searches and sorts published books
func ListBooksHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()                                     // Use background context for Redis
		search := strings.ToLower(strings.TrimSpace(c.Query("search"))) // Case-insensitive search
		sort := c.Query("sort")                                         // Optional sort order
		cacheKey := booksCachePrefix + "list:search=" + search + ":sort=" + sort
		books := []domain.Book{} // Slice to hold books
		// Try to serve from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &books); err == nil && found {
			c.Header("X-Cache", "HIT") // Indicate response is from cache
			c.JSON(http.StatusOK, books)
			return
		}
		query := db.Where("status = ?", domain.BookPublished) // Only published books are listed
		if search != "" {
			like := "%" + likeEscaper.Replace(search) + "%" // Wildcards in the input match literally
			query = query.Where(`(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!' OR LOWER(genre) LIKE ? ESCAPE '!')`, like, like, like)
		}
		switch sort {
		case SortPriceAsc:
			query = query.Order("price asc")
		case SortPriceDesc:
			query = query.Order("price desc")
		case SortNewest:
			query = query.Order("created_at desc")
		}
		if err := query.Find(&books).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"}) // Return on error
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, books, booksCacheTTL) // Cache the response for future requests
		c.Header("X-Cache", "MISS")
		c.JSON(http.StatusOK, books)
	}
}

// LatestBooksHandler returns the newest published books
func LatestBooksHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		cacheKey := booksCachePrefix + "latest"
		books := []domain.Book{}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &books); err == nil && found {
			c.JSON(http.StatusOK, books)
			return
		}
		err := db.Where("status = ?", domain.BookPublished).Order("created_at desc").Limit(latestLimit).Find(&books).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, books, booksCacheTTL)
		c.JSON(http.StatusOK, books)
	}
}

// GetBookHandler returns one book
func GetBookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db, c.Param("id"))
		if !ok {
			return
		}
		c.JSON(http.StatusOK, book)
	}
}

// likeEscaper quotes LIKE wildcards with '!', an ESCAPE character MySQL and
// SQLite read the same way
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// findBook loads a book or writes the error response
func findBook(c *gin.Context, db *gorm.DB, id string) (*domain.Book, bool) {
	var book domain.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"}) // Unknown book
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch book"})
		}
		return nil, false
	}
	return &book, true
}

// bindBook validates a BookRequest
func bindBook(c *gin.Context) (*BookRequest, bool) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book: " + err.Error()}) // Validation failure
		return nil, false
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
		return nil, false
	}
	if req.Status == "" {
		req.Status = string(domain.BookPublished) // Published unless stated otherwise
	}
	return &req, true
}

// CreateBookHandler lists a new book under the caller's name
func CreateBookHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindBook(c)
		if !ok {
			return
		}
		user := middleware.CurrentUser(c) // The caller is the seller
		book := domain.Book{
			Title:       strings.TrimSpace(req.Title),                                         // Title
			Author:      strings.TrimSpace(req.Author),                                        // Author
			Genre:       strings.TrimSpace(req.Genre),                                         // Genre
			Description: req.Description,                                                      // Description
			Price:       req.Price.Round(2),                                                   // Price in major units
			Image:       req.Image,                                                            // Cover URL
			Status:      domain.BookStatus(req.Status),                                        // Publication state
			Quantity:    req.Quantity,                                                         // Copies
			Seller:      domain.Seller{Name: user.Name, Email: user.Email, Image: user.Image}, // Seller from the token
		}
		if err := db.Create(&book).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"seller": user.Email,  // Seller email
				"title":  book.Title,  // Book title
				"error":  err.Error(), // Error message
			}).Error("Create book failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
			return
		}
		logrus.WithFields(logrus.Fields{"book_id": book.ID, "seller": user.Email}).Info("Book created")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, booksCachePrefix) // Invalidate book lists
		c.JSON(http.StatusCreated, book)
	}
}

// UpdateBookHandler edits a book; only its seller or an admin may do so
func UpdateBookHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, ok := findBook(c, db, c.Param("id"))
		if !ok {
			return
		}
		user := middleware.CurrentUser(c)
		if user.Role != domain.RoleAdmin && book.Seller.Email != user.Email {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own books"}) // Not the owner
			return
		}
		req, ok := bindBook(c)
		if !ok {
			return
		}
		updates := map[string]any{
			"title":       strings.TrimSpace(req.Title),
			"author":      strings.TrimSpace(req.Author),
			"genre":       strings.TrimSpace(req.Genre),
			"description": req.Description,
			"price":       req.Price.Round(2),
			"image":       req.Image,
			"status":      domain.BookStatus(req.Status),
			"quantity":    req.Quantity,
		}
		if err := db.Model(book).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
			return
		}
		if book, ok = findBook(c, db, book.ID); !ok { // Reload the stored state
			return
		}
		logrus.WithFields(logrus.Fields{"book_id": book.ID, "by": user.Email}).Info("Book updated")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, booksCachePrefix)
		c.JSON(http.StatusOK, book)
	}
}

// SetBookStatusHandler publishes or unpublishes a book
func SetBookStatusHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "isPublished is required"})
			return
		}
		status := domain.BookUnpublished
		if *req.IsPublished {
			status = domain.BookPublished
		}
		res := db.Model(&domain.Book{}).Where("id = ?", c.Param("id")).Update("status", status)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book status"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		logrus.WithFields(logrus.Fields{"book_id": c.Param("id"), "status": status}).Info("Book status changed")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, booksCachePrefix)
		c.JSON(http.StatusOK, gin.H{"message": "Book status updated", "status": status, "isPublished": *req.IsPublished})
	}
}

// DeleteBookHandler removes a book together with its orders, reviews and wishlist entries
func DeleteBookHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var deletedOrders int64 // Orders removed with the book
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Where("book_id = ?", id).Delete(&domain.Order{}) // Remove related orders
			if res.Error != nil {
				return res.Error // Return error to rollback
			}
			deletedOrders = res.RowsAffected
			if err := tx.Where("book_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
				return err
			}
			if err := tx.Where("book_id = ?", id).Delete(&domain.WishlistItem{}).Error; err != nil {
				return err
			}
			res = tx.Where("id = ?", id).Delete(&domain.Book{}) // Finally the book itself
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil // Commit transaction
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"book_id": id, "error": err.Error()}).Error("Delete book failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"book_id":        id,                              // Deleted book
			"deleted_orders": deletedOrders,                   // Cascaded orders
			"by":             middleware.CurrentUser(c).Email, // Admin email
		}).Info("Book deleted")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, booksCachePrefix)
		c.JSON(http.StatusOK, gin.H{"message": "Book and related orders deleted", "deletedOrders": deletedOrders})
	}
}

// AllBooksHandler returns every book regardless of status
func AllBooksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		books := []domain.Book{}
		if err := db.Order("created_at desc").Find(&books).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
			return
		}
		c.JSON(http.StatusOK, books)
	}
}

// MyBooksHandler returns the books listed by the caller
func MyBooksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		books := []domain.Book{}
		email := middleware.CurrentUser(c).Email
		if err := db.Where("seller_email = ?", email).Order("created_at desc").Find(&books).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
			return
		}
		c.JSON(http.StatusOK, books)
	}
}
