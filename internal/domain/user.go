package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User Model
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`              // UUID primary key
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"` // Identity email, unique
	Name      string    `gorm:"size:191" json:"name"`                       // Display name
	Image     string    `gorm:"size:512" json:"image"`                      // Photo URL
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`      // user, librarian or admin
	Password  string    `gorm:"size:255" json:"-"`                          // bcrypt hash, only for local accounts
	CreatedAt time.Time `json:"createdAt"`                                  // First sign-in
}

// BeforeCreate assigns the UUID and the default role.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if !u.Role.Valid() {
		u.Role = RoleUser
	}
	return nil
}
