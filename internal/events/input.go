package events

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdg-garage/community-events/internal/failure"
	"github.com/gdg-garage/community-events/internal/models"
)

// Input is the editable part of an event.
type Input struct {
	Title          string
	Description    string
	StartTime      time.Time
	EndTime        time.Time
	Location       string
	Capacity       int
	SeekingSpeaker bool
}

// Validate returns the first rule the input breaks. New events must start
// after now; edits may keep a start time in the past.
func (in Input) Validate(now time.Time, isNew bool) error {
	switch n := utf8.RuneCountInString(in.Title); {
	case n < 5:
		return failure.Invalid("title", "Title must be at least 5 characters")
	case n > 100:
		return failure.Invalid("title", "Title must be at most 100 characters")
	}
	if utf8.RuneCountInString(in.Description) < 10 {
		return failure.Invalid("description", "Description must be at least 10 characters")
	}
	if in.StartTime.IsZero() {
		return failure.Invalid("start_time", "Start time is required")
	}
	if in.EndTime.IsZero() {
		return failure.Invalid("end_time", "End time is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return failure.Invalid("location", "Location is required")
	}
	if in.Capacity <= 0 {
		return failure.Invalid("capacity", "Capacity must be greater than 0")
	}
	if isNew && !in.StartTime.After(now) {
		return failure.Invalid("start_time", "Start time must be in the future")
	}
	if !in.EndTime.After(in.StartTime) {
		return failure.Invalid("end_time", "End time must be after the start time")
	}
	return nil
}

func (in Input) apply(e *models.Event) {
	e.Title = in.Title
	e.Description = in.Description
	e.StartTime = in.StartTime.UTC()
	e.EndTime = in.EndTime.UTC()
	e.Location = in.Location
	e.Capacity = in.Capacity
	e.SeekingSpeaker = in.SeekingSpeaker
}

// scheduleChanged reports the first non-metadata field the input would
// change on e, or "" when only metadata differs.
func (in Input) scheduleChanged(e *models.Event) string {
	switch {
	case !in.StartTime.Equal(e.StartTime):
		return "start_time"
	case !in.EndTime.Equal(e.EndTime):
		return "end_time"
	case in.Capacity != e.Capacity:
		return "capacity"
	}
	return ""
}
