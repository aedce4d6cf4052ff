// Package session keeps the signed-in identity of a courierctl user. A
// Session is created once at startup and torn down by SignOut.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// refreshMargin renews tokens slightly before they expire.
const refreshMargin = time.Minute

var (
	ErrNotSignedIn        = errors.New("not signed in")
	ErrRefreshUnsupported = errors.New("identity provider cannot refresh tokens")
)

// User is the identity behind a session.
type User struct {
	UID   string `yaml:"uid"`
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Photo string `yaml:"photo"`
}

// Credentials are what a provider hands back on sign-in.
type Credentials struct {
	User         User      `yaml:"user"`
	IDToken      string    `yaml:"id_token"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	ExpiresAt    time.Time `yaml:"expires_at"`
}

func (c *Credentials) expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.Add(refreshMargin).After(c.ExpiresAt)
}

// IdentityProvider issues ID tokens.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, name, email, password, photo string) (*Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
}

// Store persists credentials between runs.
type Store interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
	Clear() error
}

// Session holds the signed-in identity and hands out fresh ID tokens.
// It is safe for concurrent use.
type Session struct {
	provider IdentityProvider
	store    Store
	now      func() time.Time

	mu    sync.Mutex
	creds *Credentials
}

// New restores any stored credentials.
func New(provider IdentityProvider, store Store) (*Session, error) {
	creds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Session{provider: provider, store: store, now: time.Now, creds: creds}, nil
}

// CurrentUser returns the signed-in user.
func (s *Session) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return User{}, false
	}
	return s.creds.User, true
}

// SignedIn reports whether a user is signed in.
func (s *Session) SignedIn() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Email is the signed-in user's email, or "".
func (s *Session) Email() string {
	u, _ := s.CurrentUser()
	return u.Email
}

// SignIn authenticates with the provider and persists the credentials.
func (s *Session) SignIn(ctx context.Context, email, password string) (User, error) {
	creds, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	return creds.User, s.set(creds)
}

// Register creates an account with the provider and signs it in.
func (s *Session) Register(ctx context.Context, name, email, password, photo string) (User, error) {
	creds, err := s.provider.Register(ctx, name, email, password, photo)
	if err != nil {
		return User{}, err
	}
	return creds.User, s.set(creds)
}

func (s *Session) set(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return s.store.Save(creds)
}

// SignOut drops the credentials from memory and from the store.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return s.store.Clear()
}

// Token returns a valid ID token, refreshing it when it is about to expire.
// It returns "" and no error when nobody is signed in.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return "", nil
	}
	if !s.creds.expired(s.now()) {
		return s.creds.IDToken, nil
	}
	if s.creds.RefreshToken == "" {
		return "", fmt.Errorf("token expired: %w", ErrRefreshUnsupported)
	}
	fresh, err := s.provider.Refresh(ctx, s.creds.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if fresh.User.Email == "" {
		fresh.User = s.creds.User
	}
	s.creds = fresh
	if err := s.store.Save(fresh); err != nil {
		logrus.WithError(err).Warn("could not persist refreshed session")
	}
	return fresh.IDToken, nil
}
