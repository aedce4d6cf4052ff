package utils

import (
	"errors" // Sentinel errors
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// TokenTTL is the lifetime of locally issued tokens
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail validation
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by locally issued ID tokens
type Claims struct {
	Email                string `json:"email"`   // Account email
	Name                 string `json:"name"`    // Display name
	Picture              string `json:"picture"` // Photo URL
	jwt.RegisteredClaims        // Standard JWT claims, Subject is the user ID
}

// GenerateJWT creates a signed token for a user
func GenerateJWT(userID, email, name, picture, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   email,   // Account email
		Name:    name,    // Display name
		Picture: picture, // Photo URL
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,                                // User ID
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)), // Token expires in 24 hours
			IssuedAt:  jwt.NewNumericDate(now),               // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Email != "" {
		return claims, nil // Return claims if valid
	}
	return nil, ErrInvalidToken
}
