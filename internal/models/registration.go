package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

// Registration is never deleted. Cancelling flips Status and a later
// registration by the same user flips it back on the same row.
type Registration struct {
	ID         string             `json:"id" gorm:"primaryKey;size:36"`
	UserID     uint               `json:"user_id" gorm:"uniqueIndex:idx_user_event"`
	EventID    string             `json:"event_id" gorm:"uniqueIndex:idx_user_event;index:idx_event_status;size:36"`
	Status     RegistrationStatus `json:"status" gorm:"index:idx_event_status;default:CONFIRMED"`
	Attended   bool               `json:"attended"`
	AttendedAt *time.Time         `json:"attended_at"`
	QRToken    string             `json:"-" gorm:"uniqueIndex;size:36"`
	User       User               `json:"-" gorm:"foreignKey:UserID"`
	Event      Event              `json:"-" gorm:"foreignKey:EventID"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.QRToken == "" {
		r.QRToken = uuid.NewString()
	}
	return nil
}
