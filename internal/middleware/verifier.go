package middleware

import (
	"bookcourier/internal/utils" // JWT utility functions
	"context"                    // Context for token verification
	"errors"                     // Sentinel errors

	firebase "firebase.google.com/go/v4" // Firebase Admin SDK
	"firebase.google.com/go/v4/auth"     // Firebase Auth client
	"google.golang.org/api/option"       // Google API client options
)

// Identity is the verified caller behind a bearer token
type Identity struct {
	UID     string // Provider user ID
	Email   string // Verified email
	Name    string // Display name
	Picture string // Photo URL
}

// TokenVerifier checks a bearer token and returns the identity it carries
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ErrNoEmail is returned for tokens without an email claim
var ErrNoEmail = errors.New("token carries no email")

// JWTVerifier accepts tokens issued by the backend's /auth endpoints
type JWTVerifier struct {
	Secret string // HMAC secret shared with the issuer
}

// Verify parses a locally issued token
func (v JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := utils.ParseJWT(token, v.Secret) // Parse and validate
	if err != nil {
		return nil, err
	}
	return &Identity{UID: claims.Subject, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
}

// FirebaseVerifier accepts Firebase ID tokens
type FirebaseVerifier struct {
	client *auth.Client // Firebase Auth client
}

// NewFirebaseVerifier initialises the Firebase Admin SDK
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsJSON string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON))) // Explicit service account
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx) // Auth client for token checks
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks signature, audience and expiry of a Firebase ID token
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	email, _ := tok.Claims["email"].(string) // Email claim
	if email == "" {
		return nil, ErrNoEmail
	}
	name, _ := tok.Claims["name"].(string)       // Display name claim
	picture, _ := tok.Claims["picture"].(string) // Photo claim
	return &Identity{UID: tok.UID, Email: email, Name: name, Picture: picture}, nil
}
