package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem Model
type WishlistItem struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`                                // UUID primary key
	UserEmail string    `gorm:"size:191;uniqueIndex:idx_wishlist_user_book" json:"userEmail"` // Owner
	BookID    string    `gorm:"size:36;uniqueIndex:idx_wishlist_user_book" json:"bookId"`     // Saved book
	Book      Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book"`    // Saved book details
	CreatedAt time.Time `json:"createdAt"`                                                    // Saved at
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
