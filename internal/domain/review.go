package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review Model
type Review struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`        // UUID primary key
	BookID    string    `gorm:"size:36;index;not null" json:"bookId"` // Reviewed book
	Rating    int       `gorm:"not null" json:"rating"`               // 1 to 5
	Text      string    `gorm:"type:text;not null" json:"text"`       // Review body
	UserEmail string    `gorm:"size:191" json:"userEmail"`            // Author email
	UserName  string    `gorm:"size:191" json:"userName"`             // Author display name
	UserImage string    `gorm:"size:512" json:"userImage"`            // Author photo
	CreatedAt time.Time `json:"createdAt"`                            // Posted at
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
