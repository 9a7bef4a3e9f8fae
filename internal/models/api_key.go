package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets a device such as a check-in scanner act as its owner.
// Only the SHA-256 hash of the key is stored.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id" gorm:"index"`
	User       User       `json:"-"`
	KeyHash    string     `json:"-" gorm:"uniqueIndex"`
	Hint       string     `json:"hint"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// All lists every model the schema migration manages.
func All() []any {
	return []any{&User{}, &Event{}, &Registration{}, &RegistrationHistory{}, &APIKey{}}
}
