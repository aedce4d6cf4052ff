package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"bookcourier/internal/utils"      // Cache helpers
	"context"                         // Context for Redis operations
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion
	"strings"                         // String manipulation
	"time"                            // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

const (
	usersCachePrefix = "users:"         // Cached user pages
	roleCachePrefix  = "role:"          // Cached role lookups
	usersCacheTTL    = 60 * time.Second // User cache lifetime
)

// UserListResponse is one page of GET /users
type UserListResponse struct {
	Users      []domain.User `json:"users"`       // Accounts on this page
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of accounts
	TotalPages int           `json:"total_pages"` // Total pages
	Cached     bool          `json:"cached"`      // Served from cache
}

// ProfileRequest is the body of POST /users
type ProfileRequest struct {
	Name  string `json:"name"`  // Display name
	Image string `json:"image"` // Photo URL
}

// RoleRequest is the body of PATCH /users/:id/role
type RoleRequest struct {
	Role string `json:"role" binding:"required"` // user, librarian or admin
}

// ListUsersHandler returns all accounts, paginated
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		page := 1                   // Default page number
		pageSize := 50              // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		cacheKey := usersCachePrefix + "page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached UserListResponse
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		var total int64 // Total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		users := []domain.User{} // Slice to hold users
		offset := (page - 1) * pageSize
		if err := db.Order("created_at asc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		resp := UserListResponse{
			Users:      users,                                  // Accounts
			Page:       page,                                   // Current page
			PageSize:   pageSize,                               // Page size
			Total:      total,                                  // Total accounts
			TotalPages: (int(total) + pageSize - 1) / pageSize, // Calculate total pages
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, usersCacheTTL) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}

// SaveUserHandler updates the caller's profile. Accounts are created by the
// auth middleware on first sign-in with the user role.
func SaveUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user := middleware.CurrentUser(c)
		updates := map[string]any{}
		if name := strings.TrimSpace(req.Name); name != "" && name != user.Name {
			updates["name"] = name
		}
		if img := strings.TrimSpace(req.Image); img != "" && img != user.Image {
			updates["image"] = img
		}
		if len(updates) > 0 {
			if err := db.Model(user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
				return
			}
			if name, ok := updates["name"].(string); ok {
				user.Name = name
			}
			if img, ok := updates["image"].(string); ok {
				user.Image = img
			}
			_ = utils.DeleteCachePrefix(context.Background(), rdb, usersCachePrefix)
		}
		c.JSON(http.StatusOK, user)
	}
}

// UserRoleHandler returns the role stored for an email
func UserRoleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		email := strings.ToLower(c.Param("email"))
		cacheKey := roleCachePrefix + email
		var cached struct {
			Role string `json:"role"`
		}
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"role": cached.Role})
			return
		}
		var user domain.User
		if err := db.Select("role").Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch role"})
			return
		}
		resp := gin.H{"role": user.Role.String()}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, usersCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// SetUserRoleHandler promotes or demotes an account
func SetUserRoleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
			return
		}
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user, librarian or admin"})
			return
		}
		admin := middleware.CurrentUser(c)
		if admin.ID == c.Param("id") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own role"}) // Keep at least one admin
			return
		}
		var user domain.User
		if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		from := user.Role
		if err := db.Model(&user).Update("role", role).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}
		user.Role = role
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,     // Target account
			"email":   user.Email,  // Target email
			"from":    from,        // Previous role
			"to":      role,        // New role
			"by":      admin.Email, // Acting admin
		}).Info("User role changed")
		ctx := context.Background()
		_ = utils.DeleteCache(ctx, rdb, roleCachePrefix+user.Email) // Invalidate role lookup
		_ = utils.DeleteCachePrefix(ctx, rdb, usersCachePrefix)     // Invalidate user pages
		c.JSON(http.StatusOK, user)
	}
}
