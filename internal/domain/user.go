// File: internal/domain/user.go
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
	ProviderApple  AuthProvider = "apple"
)

type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "free"
	SubscriptionPremium SubscriptionStatus = "premium"
	SubscriptionExpired SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionFree, SubscriptionPremium, SubscriptionExpired:
		return true
	}
	return false
}

type User struct {
	ID                 string             `gorm:"primaryKey;size:36" json:"id"`
	Email              string             `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Nickname           string             `gorm:"uniqueIndex;size:50;not null" json:"nickname"`
	Password           string             `gorm:"size:255" json:"-"`
	Provider           AuthProvider       `gorm:"size:20;not null;default:email;uniqueIndex:idx_users_provider_identity" json:"provider"`
	ProviderID         *string            `gorm:"size:255;uniqueIndex:idx_users_provider_identity" json:"providerId,omitempty"`
	ProfileImageURL    string             `gorm:"size:2048" json:"profileImageUrl,omitempty"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:20;not null;default:free" json:"subscriptionStatus"`
	PremiumExpiresAt   *time.Time         `json:"premiumExpiresAt,omitempty"`
	IsActive           bool               `gorm:"not null;default:true" json:"isActive"`
	IsAdmin            bool               `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HashPassword securely hashes the user's password.
func (u *User) HashPassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// ValidatePassword compares a plain-text password with the user's hashed password.
func (u *User) ValidatePassword(password string) error {
	if u.Password == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// PremiumAt reports whether the subscription grants premium at the given instant.
// lapsed is true when the status still says premium but the expiry has passed.
func (u *User) PremiumAt(now time.Time) (premium bool, lapsed bool) {
	if u.SubscriptionStatus != SubscriptionPremium {
		return false, false
	}
	if u.PremiumExpiresAt == nil {
		return true, false
	}
	if now.Before(*u.PremiumExpiresAt) {
		return true, false
	}
	return false, true
}
