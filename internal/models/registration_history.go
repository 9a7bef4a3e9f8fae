package models

import (
	"gorm.io/gorm"
)

type HistoryAction string

const (
	ActionRegistered   HistoryAction = "REGISTERED"
	ActionReregistered HistoryAction = "REREGISTERED"
	ActionCancelled    HistoryAction = "CANCELLED"
	ActionCheckedIn    HistoryAction = "CHECKED_IN"
)

// RegistrationHistory is an append-only audit trail of registration transitions.
type RegistrationHistory struct {
	gorm.Model
	RegistrationID string             `json:"registration_id" gorm:"index;size:36"`
	UserID         uint               `json:"user_id"`
	EventID        string             `json:"event_id" gorm:"index;size:36"`
	Action         HistoryAction      `json:"action"`
	Status         RegistrationStatus `json:"status"`
	Attended       bool               `json:"attended"`
	ActorID        uint               `json:"actor_id"`
}
