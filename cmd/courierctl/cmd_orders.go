package main

import (
	"context"
	"fmt"

	"bookcourier/internal/access"
	"bookcourier/internal/domain"
	"bookcourier/internal/orders"

	"github.com/spf13/cobra"
)

var (
	manageFlag bool
	placeName  string
	placePhone string
	placeAddr  string
	usersPage  int
)

// scope picks the order list a command works on and guards its view.
func (a *app) scope(ctx context.Context) (orders.Scope, error) {
	if manageFlag {
		return orders.ScopeLibrarian, a.enter(ctx, "/dashboard/manage-orders")
	}
	return orders.ScopeMine, a.enter(ctx, "/dashboard/my-orders")
}

func printOrders(a *app, list []domain.Order) error {
	w := a.table("ID", "BOOK", "PRICE", "CUSTOMER", "STATUS", "PAYMENT", "NEXT", "DATE")
	for _, o := range list {
		next := ""
		for i, s := range domain.NextStatuses(o.OrderStatus) {
			if i > 0 {
				next += ","
			}
			next += string(s)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.BookTitle, o.Price.StringFixed(2), o.UserEmail,
			o.OrderStatus, o.PaymentStatus, next, o.OrderDate.Format("2006-01-02"))
	}
	return w.Flush()
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Place, track and manage orders",
}

// courierctl orders place <book-id> --phone ... --address ...
var ordersPlaceCmd = &cobra.Command{
	Use:   "place <book-id>",
	Short: "Order a book",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.signedIn("/books/" + args[0]); err != nil {
			return err
		}
		u, _ := a.session.CurrentUser()
		name := placeName
		if name == "" {
			name = u.Name
		}
		o, err := a.orders.PlaceOrder(ctx, orders.PlaceRequest{
			BookID:   args[0],
			UserName: name,
			Email:    u.Email,
			Phone:    placePhone,
			Address:  placeAddr,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Order %s placed: %s, %s\n", o.ID, o.OrderStatus, o.PaymentStatus)
		return nil
	}),
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders, or every order with --manage",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		scope, err := a.scope(ctx)
		if err != nil {
			return err
		}
		list, err := a.orders.ListOrders(ctx, scope)
		if err != nil {
			return err
		}
		return printOrders(a, list)
	}),
}

func statusCmd(use string, to domain.OrderStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id>",
		Short: "Mark an order " + string(to),
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			if err := a.enter(ctx, "/dashboard/manage-orders"); err != nil {
				return err
			}
			if _, err := a.orders.ListOrders(ctx, orders.ScopeLibrarian); err != nil {
				return err
			}
			if err := a.orders.UpdateStatus(ctx, args[0], to); err != nil {
				return err
			}
			return printOrders(a, a.orders.Orders())
		}),
	}
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a pending order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		scope, err := a.scope(ctx)
		if err != nil {
			return err
		}
		if _, err := a.orders.ListOrders(ctx, scope); err != nil {
			return err
		}
		err = a.orders.Cancel(ctx, args[0], func(o domain.Order) bool {
			return confirmer(cmd, fmt.Sprintf("Cancel the order for %q? This cannot be undone", o.BookTitle))
		})
		if err != nil {
			return err
		}
		return printOrders(a, a.orders.Orders())
	},
}

var ordersPayCmd = &cobra.Command{
	Use:   "pay <order-id>",
	Short: "Open the checkout page for an unpaid order",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/my-orders"); err != nil {
			return err
		}
		list, err := a.orders.ListOrders(ctx, orders.ScopeMine)
		if err != nil {
			return err
		}
		u, _ := a.session.CurrentUser()
		for _, o := range list {
			if o.ID == args[0] {
				_, err := a.orders.InitiatePayment(ctx, o, orders.Customer{Name: u.Name, Email: u.Email})
				return err
			}
		}
		return orders.ErrOrderNotFound
	}),
}

var ordersVerifyCmd = &cobra.Command{
	Use:   "verify <session-id>",
	Short: "Confirm a completed checkout",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/payment-success"); err != nil {
			return err
		}
		r, err := a.orders.VerifyPayment(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: order %s, transaction %s\n", r.Message, r.OrderID, r.TransactionID)
		return printOrders(a, a.orders.Orders())
	}),
}

var ordersStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise your orders, or every order with --manage",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		scope, err := a.scope(ctx)
		if err != nil {
			return err
		}
		list, err := a.orders.ListOrders(ctx, scope)
		if err != nil {
			return err
		}
		s := orders.Stats(list)
		w := a.table("TOTAL", "PENDING", "SHIPPED", "DELIVERED", "CANCELLED", "PAID", "REVENUE")
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n", s.Total, s.Pending, s.Shipped, s.Delivered, s.Cancelled, s.Paid, s.Revenue.StringFixed(2))
		return w.Flush()
	}),
}

// courierctl payments
var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "List your invoices",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/invoices"); err != nil {
			return err
		}
		list, err := a.catalog.Payments(ctx)
		if err != nil {
			return err
		}
		w := a.table("TRANSACTION", "BOOK", "AMOUNT", "DATE")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", p.TransactionID, p.BookTitle, p.Amount.StringFixed(2), p.Currency, p.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	}),
}

// courierctl dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard counters for your role",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard"); err != nil {
			return err
		}
		st, err := a.catalog.DashboardStats(ctx)
		if err != nil {
			return err
		}
		w := a.table("ROLE", "ORDERS", "COMPLETED", "PENDING", "BOOKS")
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", st.Role, st.TotalOrders, st.CompletedOrders, st.PendingOrders, st.TotalBooks)
		return w.Flush()
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/manage-users"); err != nil {
			return err
		}
		page, err := a.catalog.Users(ctx, usersPage)
		if err != nil {
			return err
		}
		w := a.table("ID", "EMAIL", "NAME", "ROLE")
		for _, u := range page.Users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "page %d of %d, %d accounts\n", page.Page, page.TotalPages, page.Total)
		return nil
	}),
}

// courierctl users promote <user-id> librarian
var usersPromoteCmd = &cobra.Command{
	Use:   "promote <user-id> <role>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/manage-users"); err != nil {
			return err
		}
		role, err := domain.ParseRole(args[1])
		if err != nil {
			return err
		}
		u, err := a.catalog.SetRole(ctx, args[0], role)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s is now %s\n", u.Email, u.Role)
		for _, m := range access.Menu(u.Role) {
			fmt.Fprintf(a.out, "  %s\n", m.Label)
		}
		return nil
	}),
}

func init() {
	ordersPlaceCmd.Flags().StringVar(&placeName, "name", "", "customer name, defaults to your profile")
	ordersPlaceCmd.Flags().StringVar(&placePhone, "phone", "", "phone number")
	ordersPlaceCmd.Flags().StringVar(&placeAddr, "address", "", "delivery address")
	_ = ordersPlaceCmd.MarkFlagRequired("phone")
	_ = ordersPlaceCmd.MarkFlagRequired("address")

	for _, c := range []*cobra.Command{ordersListCmd, ordersCancelCmd, ordersStatsCmd} {
		c.Flags().BoolVar(&manageFlag, "manage", false, "work on every order (librarians)")
	}
	ordersCancelCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	usersListCmd.Flags().IntVar(&usersPage, "page", 1, "page number")

	ordersCmd.AddCommand(ordersPlaceCmd, ordersListCmd,
		statusCmd("ship", domain.OrderShipped), statusCmd("deliver", domain.OrderDelivered),
		ordersCancelCmd, ordersPayCmd, ordersVerifyCmd, ordersStatsCmd)
	usersCmd.AddCommand(usersListCmd, usersPromoteCmd)
}
