package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"go.uber.org/zap"
)

type AdminHandler struct {
	svc *events.Service
	log *zap.Logger
}

func NewAdminHandler(svc *events.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

type EventFields struct {
	Title          string    `json:"title" doc:"5 to 100 characters"`
	Description    string    `json:"description" doc:"At least 10 characters"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Location       string    `json:"location"`
	Capacity       int       `json:"capacity" doc:"Maximum number of confirmed registrations"`
	SeekingSpeaker bool      `json:"seeking_speaker,omitempty"`
}

func (f EventFields) input() events.Input {
	return events.Input{
		Title:          f.Title,
		Description:    f.Description,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		Location:       f.Location,
		Capacity:       f.Capacity,
		SeekingSpeaker: f.SeekingSpeaker,
	}
}

type CreateEventRequest struct {
	Body struct {
		EventFields
		Publish bool `json:"publish,omitempty" doc:"Publish right away instead of saving a draft"`
	}
}

type UpdateEventRequest struct {
	ID   string `path:"id"`
	Body EventFields
}

type EventOutput struct {
	Body *models.Event
}

func (h *AdminHandler) HandleCreate(ctx context.Context, input *CreateEventRequest) (*EventOutput, error) {
	event, err := h.svc.Create(ctx, identity.FromContext(ctx), input.Body.input(), input.Body.Publish)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &EventOutput{Body: event}, nil
}

func (h *AdminHandler) HandleUpdate(ctx context.Context, input *UpdateEventRequest) (*EventOutput, error) {
	event, err := h.svc.Update(ctx, identity.FromContext(ctx), input.ID, input.Body.input())
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &EventOutput{Body: event}, nil
}

type AdminEventsOutput struct {
	Body []events.Summary
}

func (h *AdminHandler) HandleList(ctx context.Context, input *struct{}) (*AdminEventsOutput, error) {
	list, err := h.svc.ListAdmin(ctx, identity.FromContext(ctx))
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &AdminEventsOutput{Body: list}, nil
}

type SetStatusRequest struct {
	ID   string `path:"id"`
	Body struct {
		Status models.EventStatus `json:"status" doc:"Target status: PUBLISHED, ENDED or CANCELLED"`
	}
}

// HandleSetStatus answers 204 whether or not the status changed.
func (h *AdminHandler) HandleSetStatus(ctx context.Context, input *SetStatusRequest) (*struct{}, error) {
	if _, err := h.svc.SetStatus(ctx, identity.FromContext(ctx), input.ID, input.Body.Status); err != nil {
		return nil, renderError(h.log, err)
	}
	return nil, nil
}

type RosterOutput struct {
	Body *events.Roster
}

func (h *AdminHandler) HandleRegistrations(ctx context.Context, input *EventIDInput) (*RosterOutput, error) {
	roster, err := h.svc.Registrations(ctx, identity.FromContext(ctx), input.ID)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &RosterOutput{Body: roster}, nil
}

type HistoryOutput struct {
	Body []models.RegistrationHistory
}

func (h *AdminHandler) HandleHistory(ctx context.Context, input *EventIDInput) (*HistoryOutput, error) {
	history, err := h.svc.History(ctx, identity.FromContext(ctx), input.ID)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &HistoryOutput{Body: history}, nil
}
