package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// BookStatus is the publication state of a book.
type BookStatus string

const (
	BookPublished   BookStatus = "published"
	BookUnpublished BookStatus = "unpublished"
)

// Seller is the librarian who listed a book.
type Seller struct {
	Name  string `gorm:"size:191" json:"name"`
	Email string `gorm:"size:191;index" json:"email"`
	Image string `gorm:"size:512" json:"image"`
}

// Book Model
type Book struct {
	ID          string          `gorm:"primaryKey;size:36" json:"_id"`                 // UUID primary key
	Title       string          `gorm:"size:255;not null" json:"title"`                // Title
	Author      string          `gorm:"size:255;not null" json:"author"`               // Author
	Genre       string          `gorm:"size:100" json:"genre"`                         // Genre, searchable
	Description string          `gorm:"type:text" json:"description"`                  // Long description
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`      // Price in major units
	Image       string          `gorm:"size:512" json:"image"`                         // Cover URL
	Status      BookStatus      `gorm:"size:16;not null;index" json:"status"`          // published or unpublished
	IsPublished bool            `gorm:"-" json:"isPublished"`                          // Derived from Status
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`            // Copies available
	Seller      Seller          `gorm:"embedded;embeddedPrefix:seller_" json:"seller"` // Listing librarian
	CreatedAt   time.Time       `json:"createdAt"`                                     // Listing time, drives "newest"
	UpdatedAt   time.Time       `json:"updatedAt"`                                     // Last edit
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BookPublished
	}
	return nil
}

func (b *Book) AfterSave(tx *gorm.DB) error {
	b.IsPublished = b.Status == BookPublished
	return nil
}

func (b *Book) AfterFind(tx *gorm.DB) error {
	b.IsPublished = b.Status == BookPublished
	return nil
}
