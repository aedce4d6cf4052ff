package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

// stripeBackend serves the two checkout session endpoints the gateway uses.
func stripeBackend(t *testing.T) (*StripeGateway, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "payment", r.PostForm.Get("mode"))
			assert.Equal(t, "reader@example.com", r.PostForm.Get("customer_email"))
			assert.Equal(t, "o-1", r.PostForm.Get("metadata[orderId]"))
			assert.Equal(t, "b-1", r.PostForm.Get("metadata[bookId]"))
			assert.Equal(t, "1999", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
			assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
			assert.Equal(t, "Dune", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
			assert.Equal(t, "http://shop.example/payment-success?session_id={CHECKOUT_SESSION_ID}", r.PostForm.Get("success_url"))
			w.Write([]byte(`{"id":"cs_paid","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_paid"}`))
		case r.URL.Path == "/v1/checkout/sessions/cs_paid":
			w.Write([]byte(`{"id":"cs_paid","object":"checkout.session","payment_status":"paid","amount_total":1999,
				"currency":"usd","payment_intent":"pi_42","metadata":{"orderId":"o-1","bookId":"b-1"}}`))
		case r.URL.Path == "/v1/checkout/sessions/cs_open":
			w.Write([]byte(`{"id":"cs_open","object":"checkout.session","payment_status":"unpaid","amount_total":1999,
				"currency":"usd","payment_intent":null,"metadata":{"orderId":"o-2"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	g := NewStripeGateway("sk_test_123", "usd", "http://shop.example/", &stripe.Backends{
		API: backend, Connect: backend, Uploads: backend,
	})
	return g, &calls
}

func TestStripeCreateCheckout(t *testing.T) {
	g, calls := stripeBackend(t)
	co, err := g.CreateCheckout(context.Background(), CheckoutRequest{
		OrderID:       "o-1",
		BookID:        "b-1",
		BookTitle:     "Dune",
		Price:         decimal.RequireFromString("19.99"),
		CustomerName:  "Reader",
		CustomerEmail: "reader@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_paid", co.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_paid", co.URL)
	assert.Equal(t, []string{"POST /v1/checkout/sessions"}, *calls)
}

func TestStripeVerifyPaid(t *testing.T) {
	g, _ := stripeBackend(t)
	v, err := g.Verify(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, &Verification{
		SessionID:     "cs_paid",
		Paid:          true,
		OrderID:       "o-1",
		TransactionID: "pi_42",
		AmountMinor:   1999,
		Currency:      "usd",
	}, v)
}

func TestStripeVerifyUnpaid(t *testing.T) {
	g, _ := stripeBackend(t)
	v, err := g.Verify(context.Background(), "cs_open")
	require.NoError(t, err)
	assert.False(t, v.Paid)
	assert.Equal(t, "o-2", v.OrderID)
	assert.Empty(t, v.TransactionID)
}

func TestStripeVerifyUnknownSession(t *testing.T) {
	g, _ := stripeBackend(t)
	_, err := g.Verify(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
