package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"bookcourier/internal/access"
	"bookcourier/internal/api"
	"bookcourier/internal/client"
	"bookcourier/internal/db"
	"bookcourier/internal/domain"
	"bookcourier/internal/middleware"
	"bookcourier/internal/orders"
	"bookcourier/internal/payment"
	"bookcourier/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secret = "catalog-test-secret"

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
func (s staticToken) SignOut() error                        { return nil }

type backend struct {
	t   *testing.T
	db  *gorm.DB
	url string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.RegisterRoutes(r, api.Deps{
		DB:       gdb,
		Verifier: middleware.JWTVerifier{Secret: secret},
		Payments: payment.NewMemoryGateway("usd", "http://shop.example"),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &backend{t: t, db: gdb, url: srv.URL}
}

// as creates an account with role and returns a client signed in as it.
func (b *backend) as(email string, role domain.Role) (*client.Client, domain.User) {
	u := domain.User{Email: email, Name: strings.Split(email, "@")[0], Role: role}
	require.NoError(b.t, b.db.Create(&u).Error)
	tok, err := utils.GenerateJWT(u.ID, u.Email, u.Name, "", secret)
	require.NoError(b.t, err)
	return client.New(b.url, staticToken(tok)), u
}

func (b *backend) book(title, author, genre string, seller string) domain.Book {
	bk := domain.Book{
		Title: title, Author: author, Genre: genre,
		Description: "Long enough description",
		Price:       decimal.NewFromInt(10),
		Seller:      domain.Seller{Email: seller},
	}
	require.NoError(b.t, b.db.Create(&bk).Error)
	return bk
}

func titles(books []domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestSearchMatchesTitleAuthorGenre(t *testing.T) {
	b := newBackend(t)
	b.book("Atomic Habits", "James Clear", "self-help", "lib@example.com")
	b.book("Physics", "Atomico", "science", "lib@example.com")
	b.book("Reactors", "Someone", "ATOMIC energy", "lib@example.com")
	b.book("Cooking", "Chef", "food", "lib@example.com")
	s := New(client.New(b.url, nil))

	books, err := s.ListBooks(context.Background(), Query{Search: "atomic"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Atomic Habits", "Physics", "Reactors"}, titles(books))

	books, err = s.ListBooks(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, books, 4)

	_, err = s.ListBooks(context.Background(), Query{Sort: "cheapest"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitReviewRejectedBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	s := New(client.New(srv.URL, nil))

	for _, r := range []Review{{Rating: 0, Text: "Great"}, {Rating: 5, Text: "   "}, {Rating: 6, Text: "Great"}} {
		_, err := s.SubmitReview(context.Background(), "b1", r)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Zero(t, calls.Load())
}

func TestSubmitReviewRefetches(t *testing.T) {
	b := newBackend(t)
	bk := b.book("B", "A", "", "lib@example.com")
	c, _ := b.as("u@example.com", domain.RoleUser)
	s := New(c)

	list, err := s.SubmitReview(context.Background(), bk.ID, Review{Rating: 4, Text: " Lovely "})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lovely", list[0].Text)
	assert.Equal(t, "u@example.com", list[0].UserEmail)
}

func TestWishlistDuplicateAdd(t *testing.T) {
	b := newBackend(t)
	bk := b.book("B", "A", "", "lib@example.com")
	c, _ := b.as("u@example.com", domain.RoleUser)
	s := New(c)
	ctx := context.Background()

	require.NoError(t, s.AddToWishlist(ctx, bk.ID))
	assert.ErrorIs(t, s.AddToWishlist(ctx, bk.ID), ErrAlreadyInWishlist)

	items, err := s.Wishlist(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.True(t, s.InWishlist(bk.ID))

	require.NoError(t, s.ToggleWishlist(ctx, bk.ID, s.InWishlist(bk.ID)))
	assert.False(t, s.InWishlist(bk.ID))

	var apiErr *client.APIError
	require.ErrorAs(t, s.RemoveFromWishlist(ctx, bk.ID), &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestPromoteUserToLibrarian(t *testing.T) {
	b := newBackend(t)
	adminClient, _ := b.as("admin@example.com", domain.RoleAdmin)
	userClient, u1 := b.as("u1@example.com", domain.RoleUser)
	admin := New(adminClient)

	page, err := admin.Users(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	updated, err := admin.SetRole(context.Background(), u1.ID, domain.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLibrarian, updated.Role)

	role := access.NewResolver(userClient).Resolve(context.Background(), "u1@example.com")
	assert.Equal(t, domain.RoleLibrarian, role)

	var labels []string
	for _, m := range access.Menu(role) {
		labels = append(labels, m.Label)
	}
	assert.Subset(t, labels, []string{"Add Book", "My Books", "Manage Orders"})

	// librarians still cannot list users
	_, err = New(userClient).Users(context.Background(), 1)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestAdminDeleteRemovesBookAndOrders(t *testing.T) {
	b := newBackend(t)
	adminClient, _ := b.as("admin@example.com", domain.RoleAdmin)
	userClient, u := b.as("u@example.com", domain.RoleUser)
	b2 := b.book("B2", "A", "", "lib@example.com")
	b.book("Other", "A", "", "lib@example.com")

	ords := orders.New(userClient)
	_, err := ords.PlaceOrder(context.Background(), orders.PlaceRequest{
		BookID: b2.ID, UserName: u.Name, Email: u.Email, Phone: "+1", Address: "1 Main St",
	})
	require.NoError(t, err)

	admin := New(adminClient)
	_, err = admin.DeleteBook(context.Background(), b2.ID, func() bool { return false })
	assert.Error(t, err)

	n, err := admin.DeleteBook(context.Background(), b2.ID, func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := admin.AllBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Other"}, titles(all))

	mine, err := ords.ListOrders(context.Background(), orders.ScopeMine)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestLibrarianManagesBooks(t *testing.T) {
	b := newBackend(t)
	libClient, _ := b.as("lib@example.com", domain.RoleLibrarian)
	adminClient, _ := b.as("admin@example.com", domain.RoleAdmin)
	lib := New(libClient)
	ctx := context.Background()

	form := BookForm{Title: "Go", Author: "Gopher", Description: "too short", Price: decimal.NewFromInt(5)}
	_, err := lib.AddBook(ctx, form)
	assert.ErrorIs(t, err, ErrValidation)

	form.Description = "A book about writing Go"
	form.Price = decimal.Zero
	_, err = lib.AddBook(ctx, form)
	assert.ErrorIs(t, err, ErrValidation)

	form.Price = decimal.RequireFromString("24.90")
	added, err := lib.AddBook(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "lib@example.com", added.Seller.Email)

	form.Title = "Go, Second Edition"
	edited, err := lib.EditBook(ctx, added.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Go, Second Edition", edited.Title)

	mine, err := lib.MyBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := New(adminClient).SetPublished(ctx, added.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsPublished)

	public, err := New(client.New(b.url, nil)).ListBooks(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, public)

	st, err := lib.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLibrarian, st.Role)
	assert.Equal(t, int64(1), st.TotalBooks)
}

func TestSaveProfileAndPayments(t *testing.T) {
	b := newBackend(t)
	c, _ := b.as("u@example.com", domain.RoleUser)
	s := New(c)

	u, err := s.SaveProfile(context.Background(), " New Name ", "https://img.example/me.png")
	require.NoError(t, err)
	assert.Equal(t, "New Name", u.Name)

	pays, err := s.Payments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pays)
}
