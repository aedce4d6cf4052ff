package access

import "bookcourier/internal/domain"

// MenuItem is one dashboard navigation entry.
type MenuItem struct {
	Label string
	Path  string
}

// menu is ordered the way the dashboard shows it.
var menu = []struct {
	MenuItem
	needs Capability
}{
	{MenuItem{"My Orders", "/dashboard/my-orders"}, ViewMyOrders},
	{MenuItem{"Invoices", "/dashboard/invoices"}, ViewInvoices},
	{MenuItem{"Wishlist", "/dashboard/wishlist"}, ManageWishlist},
	{MenuItem{"Profile", "/dashboard/profile"}, ViewProfile},
	{MenuItem{"Add Book", "/dashboard/add-books"}, AddBook},
	{MenuItem{"My Books", "/dashboard/my-books"}, ViewMyBooks},
	{MenuItem{"Manage Orders", "/dashboard/manage-orders"}, ManageOrders},
	{MenuItem{"Manage Users", "/dashboard/manage-users"}, ManageUsers},
	{MenuItem{"Manage Books", "/dashboard/manage-books"}, ManageBooks},
}

// Menu returns the dashboard entries visible to role.
func Menu(role domain.Role) []MenuItem {
	var out []MenuItem
	for _, m := range menu {
		if Allows(role, m.needs) {
			out = append(out, m.MenuItem)
		}
	}
	return out
}

// QuickActions returns the dashboard home shortcuts for role.
func QuickActions(role domain.Role) []MenuItem {
	var out []MenuItem
	for _, m := range Menu(role) {
		switch m.Path {
		case "/dashboard/add-books", "/dashboard/manage-orders", "/dashboard/manage-users", "/dashboard/manage-books":
			out = append(out, m)
		}
	}
	return out
}
