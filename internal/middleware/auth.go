package middleware

import (
	"bookcourier/internal/domain" // Importing domain models
	"errors"                      // Error inspection
	"net/http"                    // HTTP status codes
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Context keys set by AuthMiddleware
const (
	ctxUser  = "user"   // *domain.User
	ctxEmail = "email"  // Caller email
	ctxUID   = "userID" // Caller user ID
)

// AuthMiddleware validates the bearer token and loads the caller, creating
// the account on its first authenticated request
func AuthMiddleware(db *gorm.DB, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c) // Header, or ?token= for websocket upgrades
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		ident, err := verifier.Verify(c.Request.Context(), tokenStr) // Verify the token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		user, err := findOrCreateUser(db, ident) // Load the caller's role fresh on every request
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"email": ident.Email, // Caller email
				"error": err.Error(), // Error message
			}).Error("Failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}
		c.Set(ctxUser, user)        // Store the caller
		c.Set(ctxEmail, user.Email) // Store the caller email
		c.Set(ctxUID, user.ID)      // Store the caller ID
		c.Next()                    // Proceed to the next handler
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if c.IsWebsocket() {
		return c.Query("token") // Browsers cannot set headers on upgrades
	}
	return ""
}

func findOrCreateUser(db *gorm.DB, ident *Identity) (*domain.User, error) {
	var user domain.User
	err := db.Where("email = ?", strings.ToLower(ident.Email)).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user = domain.User{
		Email: strings.ToLower(ident.Email), // Emails are stored lower case
		Name:  ident.Name,                   // Display name from the token
		Image: ident.Picture,                // Photo from the token
		Role:  domain.RoleUser,              // Every new account starts as a user
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	logrus.WithField("email", user.Email).Info("User created on first sign-in")
	return &user, nil
}

// CurrentUser returns the caller loaded by AuthMiddleware
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
