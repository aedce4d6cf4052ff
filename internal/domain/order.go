package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentStatus tracks whether an order has been paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// transitions is the complete order state machine. Statuses absent as keys are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered},
}

// Valid reports whether s is a declared order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s OrderStatus) []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order Model
type Order struct {
	ID            string          `gorm:"primaryKey;size:36" json:"_id"`             // UUID primary key
	BookID        string          `gorm:"size:36;index;not null" json:"bookId"`      // Ordered book
	BookTitle     string          `gorm:"size:255" json:"bookTitle"`                 // Title snapshot
	BookImage     string          `gorm:"size:512" json:"bookImage"`                 // Cover snapshot
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`  // Price snapshot
	SellerEmail   string          `gorm:"size:191;index" json:"sellerEmail"`         // Listing librarian
	UserName      string          `gorm:"size:191" json:"userName"`                  // Customer name
	UserEmail     string          `gorm:"size:191;index;not null" json:"userEmail"`  // Customer email
	Phone         string          `gorm:"size:32" json:"phone"`                      // Shipping phone
	Address       string          `gorm:"type:text" json:"address"`                  // Shipping address
	OrderStatus   OrderStatus     `gorm:"size:16;not null;index" json:"orderStatus"` // pending, shipped, delivered, cancelled
	PaymentStatus PaymentStatus   `gorm:"size:16;not null" json:"paymentStatus"`     // unpaid or paid
	TransactionID string          `gorm:"size:191" json:"transactionId,omitempty"`   // Set when paid
	OrderDate     time.Time       `gorm:"autoCreateTime" json:"orderDate"`           // Placed at
	UpdatedAt     time.Time       `json:"updatedAt"`                                 // Last status change
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderStatus == "" {
		o.OrderStatus = OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentUnpaid
	}
	return nil
}

// CanCancel reports whether the order is still cancellable.
func (o Order) CanCancel() bool {
	return CanTransition(o.OrderStatus, OrderCancelled)
}

// CanPay reports whether the order should offer a payment action.
func (o Order) CanPay() bool {
	return o.OrderStatus == OrderPending && o.PaymentStatus == PaymentUnpaid
}
