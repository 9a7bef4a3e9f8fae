package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventEnded     EventStatus = "ENDED"
	EventCancelled EventStatus = "CANCELLED"
)

type Event struct {
	ID             string      `json:"id" gorm:"primaryKey;size:36"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	StartTime      time.Time   `json:"start_time" gorm:"index"`
	EndTime        time.Time   `json:"end_time"`
	Location       string      `json:"location"`
	Capacity       int         `json:"capacity"`
	SeekingSpeaker bool        `json:"seeking_speaker"`
	Status         EventStatus `json:"status" gorm:"index;default:DRAFT"`
	OrganizerID    uint        `json:"organizer_id"`
	Organizer      User        `json:"-" gorm:"foreignKey:OrganizerID"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
