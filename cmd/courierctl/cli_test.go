package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bookcourier/internal/api"
	"bookcourier/internal/db"
	"bookcourier/internal/domain"
	"bookcourier/internal/middleware"
	"bookcourier/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" y ":   true,
		"\n":    false,
		"no\n":  false,
		"":      false,
	}
	for in, want := range cases {
		var out bytes.Buffer
		assert.Equal(t, want, confirm(strings.NewReader(in), &out, "Delete?"), "input %q", in)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}

func TestCommandTree(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"login", "register", "logout", "whoami", "menu",
		"books", "reviews", "wishlist", "upload-image", "orders", "payments", "dashboard", "users"})

	sub, _, err := rootCmd.Find([]string{"orders", "deliver"})
	require.NoError(t, err)
	assert.Equal(t, "deliver", sub.Name())
}

// startBackend serves the REST API with local auth and points the CLI at it.
func startBackend(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	const secret = "cli-test-secret"
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.RegisterRoutes(r, api.Deps{
		DB:        gdb,
		Verifier:  middleware.JWTVerifier{Secret: secret},
		Payments:  payment.NewMemoryGateway("usd", "http://shop.example"),
		JWTSecret: secret,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("COURIER_API_URL", srv.URL)
	t.Setenv("COURIER_IDENTITY", "dev")
	t.Setenv("COURIER_SESSION_FILE", filepath.Join(t.TempDir(), "session.yaml"))
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	return gdb
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReaderOrdersABook(t *testing.T) {
	gdb := startBackend(t)
	book := domain.Book{
		Title: "Dune", Author: "Frank Herbert", Genre: "sci-fi",
		Description: "Spice and sandworms",
		Price:       decimal.RequireFromString("9.50"),
		Seller:      domain.Seller{Email: "lib@example.com"},
	}
	require.NoError(t, gdb.Create(&book).Error)

	out, err := execute(t, "register", "reader@example.com", "--name", "Reader", "-p", "Secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Reader")

	out, err = execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "reader@example.com")
	assert.Contains(t, out, "user")

	out, err = execute(t, "books", "list", "--search", "DUNE")
	require.NoError(t, err)
	assert.Contains(t, out, "Frank Herbert")
	assert.Contains(t, out, "9.50")

	out, err = execute(t, "orders", "place", book.ID, "--phone", "+1 555 0100", "--address", "1 Main St")
	require.NoError(t, err)
	assert.Contains(t, out, "pending, unpaid")

	out, err = execute(t, "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dune")

	_, err = execute(t, "books", "delete", book.ID, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available for your role")

	_, err = execute(t, "logout")
	require.NoError(t, err)

	_, err = execute(t, "menu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in first")
}
