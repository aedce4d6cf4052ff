package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeProvider struct {
	refreshes int
	failNext  bool
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (*Credentials, error) {
	return &Credentials{
		User:         User{UID: "uid-1", Email: email},
		IDToken:      "id-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeProvider) Register(ctx context.Context, name, email, password, _ string) (*Credentials, error) {
	c, _ := f.SignIn(ctx, email, password)
	c.User.Name = name
	return c, nil
}

func (f *fakeProvider) Refresh(_ context.Context, token string) (*Credentials, error) {
	if f.failNext {
		return nil, errors.New("TOKEN_EXPIRED")
	}
	f.refreshes++
	return &Credentials{User: User{UID: "uid-1"}, IDToken: "id-2", RefreshToken: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestSignInPersistsAndSignOutClears(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.yaml")}
	s, err := New(&fakeProvider{}, store)
	require.NoError(t, err)
	assert.False(t, s.SignedIn())

	u, err := s.SignIn(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", u.Email)

	restored, err := New(&fakeProvider{}, store)
	require.NoError(t, err)
	assert.True(t, restored.SignedIn())
	assert.Equal(t, "u@example.com", restored.Email())
	tok, err := restored.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-1", tok)

	require.NoError(t, restored.SignOut())
	assert.False(t, restored.SignedIn())
	again, err := New(&fakeProvider{}, store)
	require.NoError(t, err)
	assert.False(t, again.SignedIn())
}

func TestTokenAnonymousWhenSignedOut(t *testing.T) {
	s, err := New(&fakeProvider{}, &MemoryStore{})
	require.NoError(t, err)
	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestTokenRefreshesWhenExpired(t *testing.T) {
	p := &fakeProvider{}
	s, err := New(p, &MemoryStore{})
	require.NoError(t, err)
	_, err = s.SignIn(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-2", tok)
	assert.Equal(t, 1, p.refreshes)
	assert.Equal(t, "u@example.com", s.Email(), "profile survives a refresh")

	p.failNext = true
	s.now = func() time.Time { return time.Now().Add(4 * time.Hour) }
	_, err = s.Token(context.Background())
	assert.Error(t, err)
}

func TestExpiredWithoutRefreshToken(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(&Credentials{User: User{Email: "a@b.c"}, IDToken: "x", ExpiresAt: time.Now().Add(-time.Minute)}))
	s, err := New(&fakeProvider{}, store)
	require.NoError(t, err)
	_, err = s.Token(context.Background())
	assert.ErrorIs(t, err, ErrRefreshUnsupported)
}

func TestFirebaseSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		switch r.URL.Path {
		case "/verifyPassword":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u@example.com", body["email"])
			assert.Equal(t, true, body["returnSecureToken"])
			w.Write([]byte(`{"localId":"L1","email":"u@example.com","displayName":"U","idToken":"tok","refreshToken":"ref","expiresIn":"3600"}`))
		case "/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "ref", r.PostForm.Get("refresh_token"))
			w.Write([]byte(`{"id_token":"tok2","refresh_token":"ref2","expires_in":"3600","user_id":"L1"}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_EXISTS"}}`))
		}
	}))
	defer srv.Close()

	p, err := NewFirebaseProvider(context.Background(), "k", srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	p.TokenURL = srv.URL

	creds, err := p.SignIn(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.IDToken)
	assert.Equal(t, "L1", creds.User.UID)
	assert.Equal(t, "U", creds.User.Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), creds.ExpiresAt, time.Minute)

	fresh, err := p.Refresh(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "tok2", fresh.IDToken)

	_, err = p.Register(context.Background(), "n", "x@example.com", "pw", "")
	var fbErr *FirebaseError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, "EMAIL_EXISTS", fbErr.Code)
	assert.Equal(t, http.StatusBadRequest, fbErr.Status)
}

func TestFirebaseRegisterSetsProfile(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/signupNewUser":
			assert.Equal(t, "new@example.com", body["email"])
			w.Write([]byte(`{"localId":"L2","email":"new@example.com","idToken":"tok","refreshToken":"ref","expiresIn":"3600"}`))
		case "/setAccountInfo":
			assert.Equal(t, "tok", body["idToken"])
			assert.Equal(t, "Reader", body["displayName"])
			assert.Equal(t, "https://img.example/me.png", body["photoUrl"])
			w.Write([]byte(`{"localId":"L2","idToken":"tok-profile","refreshToken":"ref-profile","expiresIn":"1800"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := NewFirebaseProvider(context.Background(), "k", srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	creds, err := p.Register(context.Background(), "Reader", "new@example.com", "pw", "https://img.example/me.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"/signupNewUser", "/setAccountInfo"}, calls)
	assert.Equal(t, "tok-profile", creds.IDToken)
	assert.Equal(t, "ref-profile", creds.RefreshToken)
	assert.Equal(t, User{UID: "L2", Email: "new@example.com", Name: "Reader", Photo: "https://img.example/me.png"}, creds.User)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), creds.ExpiresAt, time.Minute)
}
