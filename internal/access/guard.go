package access

import (
	"context"
	"strings"

	"bookcourier/internal/domain"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is the outcome of a navigation check.
type Decision struct {
	Allowed  bool
	Redirect string // target when not allowed
	From     string // original path, kept for the post-login redirect
}

// RequireAuth lets signed-in viewers through and sends everyone else to
// the login view, remembering where they were headed.
func RequireAuth(signedIn bool, path string) Decision {
	if signedIn {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginPath, From: path}
}

// RequireRole lets role through when it is one of want, otherwise sends it home.
func RequireRole(role domain.Role, want ...domain.Role) Decision {
	for _, w := range want {
		if role == w {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: HomePath}
}

// RequireCapability is RequireRole expressed through the capability table.
func RequireCapability(role domain.Role, c Capability) Decision {
	if Allows(role, c) {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: HomePath}
}

// Route is a navigable view.
type Route struct {
	Pattern string
	Auth    bool
	Needs   Capability // empty when any signed-in role may enter
}

// Routes is the navigation table of the storefront.
var Routes = []Route{
	{Pattern: "/"},
	{Pattern: "/books"},
	{Pattern: "/books/:id"},
	{Pattern: "/login"},
	{Pattern: "/register"},
	{Pattern: "/payment-success", Auth: true},
	{Pattern: "/dashboard", Auth: true},
	{Pattern: "/dashboard/my-orders", Auth: true, Needs: ViewMyOrders},
	{Pattern: "/dashboard/invoices", Auth: true, Needs: ViewInvoices},
	{Pattern: "/dashboard/wishlist", Auth: true, Needs: ManageWishlist},
	{Pattern: "/dashboard/profile", Auth: true, Needs: ViewProfile},
	{Pattern: "/dashboard/add-books", Auth: true, Needs: AddBook},
	{Pattern: "/dashboard/my-books", Auth: true, Needs: ViewMyBooks},
	{Pattern: "/dashboard/edit-books/:id", Auth: true, Needs: EditBook},
	{Pattern: "/dashboard/manage-orders", Auth: true, Needs: ManageOrders},
	{Pattern: "/dashboard/manage-users", Auth: true, Needs: ManageUsers},
	{Pattern: "/dashboard/manage-books", Auth: true, Needs: ManageBooks},
}

// Match finds the route for path. Segments starting with ':' match anything.
func Match(path string) (Route, bool) {
	path = strings.SplitN(path, "?", 2)[0]
	want := splitPath(path)
	for _, r := range Routes {
		got := splitPath(r.Pattern)
		if len(got) != len(want) {
			continue
		}
		ok := true
		for i := range got {
			if !strings.HasPrefix(got[i], ":") && got[i] != want[i] {
				ok = false
				break
			}
		}
		if ok {
			return r, true
		}
	}
	return Route{}, false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Viewer is the signed-in state a guard needs.
type Viewer interface {
	SignedIn() bool
	Email() string
}

// RoleSource resolves a viewer's role.
type RoleSource interface {
	Resolve(ctx context.Context, email string) domain.Role
}

// Navigator applies the guards of the route table, once per navigation.
type Navigator struct {
	viewer Viewer
	roles  RoleSource
}

// NewNavigator checks routes for viewer, resolving roles through roles.
func NewNavigator(viewer Viewer, roles RoleSource) *Navigator {
	return &Navigator{viewer: viewer, roles: roles}
}

// Navigate checks whether the viewer may open path. The role is resolved
// fresh on every call for routes that need one.
func (n *Navigator) Navigate(ctx context.Context, path string) Decision {
	route, ok := Match(path)
	if !ok {
		return Decision{Redirect: HomePath}
	}
	if !route.Auth {
		return Decision{Allowed: true}
	}
	if d := RequireAuth(n.viewer.SignedIn(), path); !d.Allowed {
		return d
	}
	if route.Needs == "" {
		return Decision{Allowed: true}
	}
	return RequireCapability(n.roles.Resolve(ctx, n.viewer.Email()), route.Needs)
}
