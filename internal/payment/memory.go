package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway completes every checkout immediately. It backs local
// development and tests when no processor key is configured.
type MemoryGateway struct {
	clientURL string
	currency  string

	mu       sync.Mutex
	sessions map[string]Verification
}

func NewMemoryGateway(currency, clientURL string) *MemoryGateway {
	return &MemoryGateway{
		clientURL: strings.TrimRight(clientURL, "/"),
		currency:  currency,
		sessions:  make(map[string]Verification),
	}
}

func (g *MemoryGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	id := "cs_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	g.mu.Lock()
	g.sessions[id] = Verification{
		SessionID:     id,
		Paid:          true,
		OrderID:       req.OrderID,
		TransactionID: "pi_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountMinor:   ToMinor(req.Price),
		Currency:      g.currency,
	}
	g.mu.Unlock()
	return &Checkout{ID: id, URL: g.clientURL + "/payment-success?session_id=" + id}, nil
}

func (g *MemoryGateway) Verify(_ context.Context, sessionID string) (*Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &v, nil
}

// MarkUnpaid makes a session report an abandoned checkout.
func (g *MemoryGateway) MarkUnpaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.sessions[sessionID]; ok {
		v.Paid = false
		g.sessions[sessionID] = v
	}
}
