// Package access holds the role capability table, the dashboard menu and the
// navigation guards shared by the backend and the courierctl front end.
package access

import "bookcourier/internal/domain"

// Capability names an action or view a role may use.
type Capability string

const (
	ViewMyOrders   Capability = "view-my-orders"
	ViewInvoices   Capability = "view-invoices"
	ManageWishlist Capability = "manage-wishlist"
	ViewProfile    Capability = "view-profile"
	PlaceOrder     Capability = "place-order"
	WriteReview    Capability = "write-review"
	AddBook        Capability = "add-book"
	EditBook       Capability = "edit-book"
	ViewMyBooks    Capability = "view-my-books"
	UploadImage    Capability = "upload-image"
	ManageOrders   Capability = "manage-orders"
	ManageUsers    Capability = "manage-users"
	ManageBooks    Capability = "manage-books"
)

var base = []Capability{ViewMyOrders, ViewInvoices, ManageWishlist, ViewProfile, PlaceOrder, WriteReview}

var table = map[domain.Role][]Capability{
	domain.RoleUser:      base,
	domain.RoleLibrarian: append(append([]Capability{}, base...), AddBook, EditBook, ViewMyBooks, UploadImage, ManageOrders),
	domain.RoleAdmin:     append(append([]Capability{}, base...), AddBook, EditBook, UploadImage, ManageUsers, ManageBooks),
}

// Allows reports whether role holds capability c. Invalid roles hold nothing.
func Allows(role domain.Role, c Capability) bool {
	for _, have := range table[role] {
		if have == c {
			return true
		}
	}
	return false
}

// Capabilities returns a copy of the capabilities granted to role.
func Capabilities(role domain.Role) []Capability {
	out := make([]Capability, len(table[role]))
	copy(out, table[role])
	return out
}
