package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	metaOrderID = "orderId"
	metaBookID  = "bookId"
)

// StripeGateway uses Stripe Checkout.
type StripeGateway struct {
	api        *client.API
	currency   string
	successURL string
	cancelURL  string
}

// NewStripeGateway builds a gateway returning customers to clientURL.
// A nil backends uses Stripe's live API endpoints.
func NewStripeGateway(secretKey, currency, clientURL string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	clientURL = strings.TrimRight(clientURL, "/")
	return &StripeGateway{
		api:        sc,
		currency:   currency,
		successURL: clientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  clientURL + "/dashboard/my-orders",
	}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.BookTitle),
	}
	if req.BookImage != "" {
		product.Images = stripe.StringSlice([]string{req.BookImage})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(ToMinor(req.Price)),
				ProductData: product,
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata(metaOrderID, req.OrderID)
	params.AddMetadata(metaBookID, req.BookID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &Checkout{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, sessionID string) (*Verification, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	v := &Verification{
		SessionID:   s.ID,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		OrderID:     s.Metadata[metaOrderID],
		AmountMinor: s.AmountTotal,
		Currency:    string(s.Currency),
	}
	if s.PaymentIntent != nil {
		v.TransactionID = s.PaymentIntent.ID
	}
	return v, nil
}
