package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token    string
	err      error
	signOuts int
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, f.err }

func (f *fakeTokens) SignOut() error {
	f.signOuts++
	f.token = ""
	return nil
}

func TestBearerAttached(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"role":"admin"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeTokens{token: "abc"})
	var out struct{ Role string }
	require.NoError(t, c.Get(context.Background(), "/users/x/role", &out))
	assert.Equal(t, "Bearer abc", got)
	assert.Equal(t, "admin", out.Role)
}

func TestAnonymousWhenNoToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeTokens{})
	var out []any
	require.NoError(t, c.Get(context.Background(), "/books", &out))
	assert.Empty(t, got)
}

func TestUnauthorizedSignsOutAndRedirects(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"Invalid or expired token"}`))
		}))

		tokens := &fakeTokens{token: "stale"}
		var redirect string
		c := New(srv.URL, tokens, WithUnauthorizedHandler(func(to string) { redirect = to }))
		err := c.Post(context.Background(), "/orders", map[string]string{"bookId": "b"}, nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, 1, tokens.signOuts)
		assert.Equal(t, LoginPath, redirect)
		srv.Close()
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Book not found"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, nil).Get(context.Background(), "/books/x", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Book not found", apiErr.Error())
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestTokenFailureIsUnauthorized(t *testing.T) {
	tokens := &fakeTokens{err: errors.New("refresh failed")}
	err := New("http://127.0.0.1:1", tokens).Get(context.Background(), "/my-orders", nil)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, tokens.signOuts)
}

func TestPostFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "cover.png", hdr.Filename)
		w.Write([]byte(`{"url":"https://cdn.example/cover.png"}`))
	}))
	defer srv.Close()

	var out struct{ URL string }
	err := New(srv.URL, nil).PostFile(context.Background(), "/uploads/image", "image", "cover.png", strings.NewReader("png"), &out)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/cover.png", out.URL)
}
