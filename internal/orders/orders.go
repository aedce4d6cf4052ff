// Package orders drives the order lifecycle from the customer and
// librarian dashboards: listing, status changes, cancellation, checkout
// and payment verification. Every mutation is followed by a refetch of the
// list currently on screen.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bookcourier/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Scope selects which order list a dashboard shows.
type Scope string

const (
	ScopeMine      Scope = "/my-orders"
	ScopeLibrarian Scope = "/librarian-orders"
)

// OrdersPath is where a verified payment sends the customer.
const OrdersPath = "/dashboard/my-orders"

var (
	ErrAborted             = errors.New("cancelled by user")
	ErrNotAllowed          = errors.New("transition not allowed")
	ErrOrderNotFound       = errors.New("order not found")
	ErrValidation          = errors.New("invalid order")
	ErrPaymentVerification = errors.New("payment verification failed")
)

// API is the subset of the authenticated client the module needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
}

// Navigator receives the paths and URLs the module wants to move to.
type Navigator func(target string)

// PlaceRequest is the order form.
type PlaceRequest struct {
	BookID   string `json:"bookId" validate:"required"`
	UserName string `json:"userName" validate:"required"`
	Email    string `json:"userEmail" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// Customer is the payer shown on the hosted checkout page.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkoutRequest struct {
	ID        string          `json:"_id"`
	BookID    string          `json:"bookId"`
	BookTitle string          `json:"bookTitle"`
	BookImage string          `json:"bookImage"`
	Price     decimal.Decimal `json:"price"`
	Customer  Customer        `json:"customer"`
}

// Receipt is the answer to a successful verification.
type Receipt struct {
	Message       string `json:"message"`
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
}

// Service places, pays and tracks orders for the signed-in caller, and
// drives status changes for librarians.
type Service struct {
	api      API
	tracker  *Tracker
	validate *validator.Validate
	navigate Navigator

	mu     sync.Mutex
	scope  Scope
	orders []domain.Order
}

// Option configures a Service.
type Option func(*Service)

// WithNavigator sets where checkout URLs and post-payment paths are sent.
func WithNavigator(n Navigator) Option {
	return func(s *Service) { s.navigate = n }
}

// WithTracker shares a request tracker between services.
func WithTracker(t *Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// New returns a Service over api. Without WithNavigator, navigation
// requests are dropped.
func New(api API, opts ...Option) *Service {
	s := &Service{
		api:      api,
		tracker:  NewTracker(),
		validate: validator.New(),
		navigate: func(string) {},
		scope:    ScopeMine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tracker exposes per-request progress for rendering.
func (s *Service) Tracker() *Tracker { return s.tracker }

// Orders returns the list fetched last.
func (s *Service) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders...)
}

// ListOrders fetches the full list for scope and makes it current.
func (s *Service) ListOrders(ctx context.Context, scope Scope) ([]domain.Order, error) {
	var list []domain.Order
	if err := s.api.Get(ctx, string(scope), &list); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	s.mu.Lock()
	s.scope = scope
	s.orders = list
	s.mu.Unlock()
	return list, nil
}

func (s *Service) refetch(ctx context.Context) {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	if _, err := s.ListOrders(ctx, scope); err != nil {
		logrus.WithError(err).Warn("refetch orders")
	}
}

// find returns the order from the current list, fetching it once if needed.
func (s *Service) find(ctx context.Context, id string) (domain.Order, error) {
	lookup := func() (domain.Order, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, o := range s.orders {
			if o.ID == id {
				return o, true
			}
		}
		return domain.Order{}, false
	}
	if o, ok := lookup(); ok {
		return o, nil
	}
	s.refetch(ctx)
	if o, ok := lookup(); ok {
		return o, nil
	}
	return domain.Order{}, ErrOrderNotFound
}

// run executes a mutation for key under the tracker and refetches afterwards.
func (s *Service) run(ctx context.Context, key string, fn func() error) error {
	if err := s.tracker.Begin(key); err != nil {
		return err
	}
	err := fn()
	s.tracker.Finish(key, err)
	s.refetch(ctx)
	return err
}

// UpdateStatus moves an order forward. Statuses the current one does not
// lead to are refused without a request.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus) error {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(o.OrderStatus, to) {
		return fmt.Errorf("%w: %s to %s", ErrNotAllowed, o.OrderStatus, to)
	}
	return s.run(ctx, orderID, func() error {
		body := map[string]domain.OrderStatus{"orderStatus": to}
		if err := s.api.Patch(ctx, "/orders/"+orderID+"/status", body, nil); err != nil {
			return fmt.Errorf("update order %s: %w", orderID, err)
		}
		logrus.WithFields(logrus.Fields{"order_id": orderID, "to": to}).Info("order status updated")
		return nil
	})
}

// Cancel cancels a pending order once confirm agrees. Customers use their
// own cancel endpoint; librarians go through the status endpoint.
func (s *Service) Cancel(ctx context.Context, orderID string, confirm func(domain.Order) bool) error {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.CanCancel() {
		return fmt.Errorf("%w: order is %s", ErrNotAllowed, o.OrderStatus)
	}
	if confirm == nil || !confirm(o) {
		return ErrAborted
	}
	s.mu.Lock()
	librarian := s.scope == ScopeLibrarian
	s.mu.Unlock()
	return s.run(ctx, orderID, func() error {
		var err error
		if librarian {
			err = s.api.Patch(ctx, "/orders/"+orderID+"/status", map[string]domain.OrderStatus{"orderStatus": domain.OrderCancelled}, nil)
		} else {
			err = s.api.Patch(ctx, "/orders/"+orderID+"/cancel", nil, nil)
		}
		if err != nil {
			return fmt.Errorf("cancel order %s: %w", orderID, err)
		}
		return nil
	})
}

// PlaceOrder submits the order form for one book.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (*domain.Order, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var order domain.Order
	err := s.run(ctx, "place:"+req.BookID, func() error {
		return s.api.Post(ctx, "/orders", req, &order)
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &order, nil
}

// InitiatePayment opens a hosted checkout for a pending, unpaid order and
// sends the caller to it.
func (s *Service) InitiatePayment(ctx context.Context, order domain.Order, customer Customer) (string, error) {
	if !order.CanPay() {
		return "", fmt.Errorf("%w: order is %s and %s", ErrNotAllowed, order.OrderStatus, order.PaymentStatus)
	}
	if err := s.tracker.Begin(order.ID); err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
		ID  string `json:"id"`
	}
	err := s.api.Post(ctx, "/create-checkout-session", checkoutRequest{
		ID:        order.ID,
		BookID:    order.BookID,
		BookTitle: order.BookTitle,
		BookImage: order.BookImage,
		Price:     order.Price,
		Customer:  customer,
	}, &out)
	if err == nil && out.URL == "" {
		err = errors.New("checkout session has no url")
	}
	s.tracker.Finish(order.ID, err)
	if err != nil {
		return "", fmt.Errorf("start checkout: %w", err)
	}
	s.navigate(out.URL)
	return out.URL, nil
}

// VerifyPayment confirms a returning checkout session. It is not retried.
func (s *Service) VerifyPayment(ctx context.Context, sessionID string) (*Receipt, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrPaymentVerification)
	}
	var r Receipt
	if err := s.api.Post(ctx, "/verify-payment", map[string]string{"sessionId": sessionID}, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentVerification, err)
	}
	logrus.WithFields(logrus.Fields{"order_id": r.OrderID, "transaction_id": r.TransactionID}).Info("payment verified")
	s.refetch(ctx)
	s.navigate(OrdersPath)
	return &r, nil
}
