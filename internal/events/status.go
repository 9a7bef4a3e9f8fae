package events

import (
	"slices"

	"github.com/gdg-garage/community-events/internal/models"
)

// transitions lists the statuses each status may move to. ENDED and
// CANCELLED are terminal.
var transitions = map[models.EventStatus][]models.EventStatus{
	models.EventDraft:     {models.EventPublished, models.EventCancelled},
	models.EventPublished: {models.EventEnded, models.EventCancelled},
	models.EventEnded:     {},
	models.EventCancelled: {},
}

func CanTransition(from, to models.EventStatus) bool {
	return slices.Contains(transitions[from], to)
}

// Registrable reports whether an event in status accepts registrations.
func Registrable(status models.EventStatus) bool {
	return status == models.EventPublished
}

// Terminal reports whether no further status change is possible.
func Terminal(status models.EventStatus) bool {
	return len(transitions[status]) == 0
}

// Visible reports whether the event is shown on the public surfaces.
func Visible(status models.EventStatus) bool {
	return status == models.EventPublished || status == models.EventEnded
}

func ValidStatus(status models.EventStatus) bool {
	_, ok := transitions[status]
	return ok
}
