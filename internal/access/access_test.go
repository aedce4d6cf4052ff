package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookcourier/internal/client"
	"bookcourier/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(items []MenuItem) []string {
	var out []string
	for _, m := range items {
		out = append(out, m.Label)
	}
	return out
}

func TestMenuByRole(t *testing.T) {
	assert.Equal(t, []string{"My Orders", "Invoices", "Wishlist", "Profile"}, labels(Menu(domain.RoleUser)))
	assert.Equal(t,
		[]string{"My Orders", "Invoices", "Wishlist", "Profile", "Add Book", "My Books", "Manage Orders"},
		labels(Menu(domain.RoleLibrarian)))
	assert.Equal(t,
		[]string{"My Orders", "Invoices", "Wishlist", "Profile", "Add Book", "Manage Users", "Manage Books"},
		labels(Menu(domain.RoleAdmin)))
	assert.Empty(t, Menu(domain.Role(0)))
}

func TestQuickActions(t *testing.T) {
	assert.Empty(t, QuickActions(domain.RoleUser))
	assert.Equal(t, []string{"Add Book", "Manage Orders"}, labels(QuickActions(domain.RoleLibrarian)))
	assert.Equal(t, []string{"Add Book", "Manage Users", "Manage Books"}, labels(QuickActions(domain.RoleAdmin)))
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(domain.RoleLibrarian, ManageOrders))
	assert.False(t, Allows(domain.RoleUser, ManageOrders))
	assert.False(t, Allows(domain.RoleAdmin, ManageOrders))
	assert.True(t, Allows(domain.RoleAdmin, ManageUsers))
	assert.False(t, Allows(domain.RoleLibrarian, ManageUsers))
}

func TestRequireAuthKeepsOrigin(t *testing.T) {
	d := RequireAuth(false, "/dashboard/my-orders")
	assert.False(t, d.Allowed)
	assert.Equal(t, LoginPath, d.Redirect)
	assert.Equal(t, "/dashboard/my-orders", d.From)
	assert.True(t, RequireAuth(true, "/dashboard").Allowed)
}

func TestRequireRoleSendsHome(t *testing.T) {
	d := RequireRole(domain.RoleUser, domain.RoleAdmin)
	assert.False(t, d.Allowed)
	assert.Equal(t, HomePath, d.Redirect)
	assert.True(t, RequireRole(domain.RoleLibrarian, domain.RoleLibrarian, domain.RoleAdmin).Allowed)
}

func TestMatch(t *testing.T) {
	r, ok := Match("/dashboard/edit-books/42?tab=1")
	require.True(t, ok)
	assert.Equal(t, EditBook, r.Needs)
	_, ok = Match("/nowhere")
	assert.False(t, ok)
	r, ok = Match("/")
	require.True(t, ok)
	assert.False(t, r.Auth)
}

type viewer struct {
	in    bool
	email string
}

func (v viewer) SignedIn() bool { return v.in }
func (v viewer) Email() string  { return v.email }

type roles struct {
	role  domain.Role
	calls int
}

func (r *roles) Resolve(context.Context, string) domain.Role {
	r.calls++
	return r.role
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()
	src := &roles{role: domain.RoleUser}

	anon := NewNavigator(viewer{}, src)
	assert.True(t, anon.Navigate(ctx, "/books/1").Allowed)
	d := anon.Navigate(ctx, "/dashboard/manage-users")
	assert.Equal(t, Decision{Redirect: LoginPath, From: "/dashboard/manage-users"}, d)
	assert.Zero(t, src.calls)

	user := NewNavigator(viewer{in: true, email: "u@example.com"}, src)
	assert.True(t, user.Navigate(ctx, "/dashboard/wishlist").Allowed)
	assert.Equal(t, Decision{Redirect: HomePath}, user.Navigate(ctx, "/dashboard/manage-users"))

	src.role = domain.RoleAdmin
	assert.True(t, user.Navigate(ctx, "/dashboard/manage-users").Allowed)
	assert.Equal(t, 3, src.calls)
}

func TestResolverDefaultsToUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/lib@example.com/role":
			w.Write([]byte(`{"role":"librarian"}`))
		case "/users/weird@example.com/role":
			w.Write([]byte(`{"role":"owner"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	r := NewResolver(client.New(srv.URL, nil))
	ctx := context.Background()
	assert.Equal(t, domain.RoleLibrarian, r.Resolve(ctx, "lib@example.com"))
	assert.Equal(t, domain.RoleUser, r.Resolve(ctx, "weird@example.com"))
	assert.Equal(t, domain.RoleUser, r.Resolve(ctx, "down@example.com"))
}
