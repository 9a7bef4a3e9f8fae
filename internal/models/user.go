package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	gorm.Model
	// GoogleID is nil for accounts that never signed in through Google.
	GoogleID *string `gorm:"uniqueIndex"`
	Name     string
	Email    string `gorm:"index"`
	Image    string
	Role     Role `gorm:"default:USER"`
}
