package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Role      string         `gorm:"default:customer" json:"role"` // customer, admin
	IsBlocked bool           `gorm:"default:false" json:"is_blocked"`
	// LegacyCartKey holds the identifier an older client generation used
	// to key this user's cart (device id or migrated account id). Empty
	// for accounts created after the key scheme changed.
	LegacyCartKey string         `gorm:"index" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
