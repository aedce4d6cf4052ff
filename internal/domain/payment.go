package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment Model, written once per verified checkout session
type Payment struct {
	ID            string          `gorm:"primaryKey;size:36" json:"_id"`             // UUID primary key
	OrderID       string          `gorm:"size:36;index;not null" json:"orderId"`     // Paid order
	BookID        string          `gorm:"size:36;index" json:"bookId"`               // Ordered book
	BookTitle     string          `gorm:"size:255" json:"bookTitle"`                 // Title snapshot
	UserEmail     string          `gorm:"size:191;index" json:"userEmail"`           // Payer
	Amount        decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`          // Major units
	Currency      string          `gorm:"size:8" json:"currency"`                    // ISO code, lower case
	TransactionID string          `gorm:"size:191;uniqueIndex" json:"transactionId"` // Processor payment id
	SessionID     string          `gorm:"size:191;uniqueIndex" json:"sessionId"`     // Checkout session id
	CreatedAt     time.Time       `json:"createdAt"`                                 // Verified at
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
