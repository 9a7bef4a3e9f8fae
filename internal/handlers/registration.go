package handlers

import (
	"context"

	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/registration"
	"go.uber.org/zap"
)

type RegistrationHandler struct {
	svc *registration.Service
	log *zap.Logger
}

func NewRegistrationHandler(svc *registration.Service, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, log: log}
}

type EventIDInput struct {
	ID string `path:"id" doc:"Event ID"`
}

type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func message(text string) *MessageResponse {
	res := &MessageResponse{}
	res.Body.Message = text
	return res
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *EventIDInput) (*MessageResponse, error) {
	if err := h.svc.Register(ctx, identity.FromContext(ctx), input.ID); err != nil {
		return nil, renderError(h.log, err)
	}
	return message("Registration confirmed"), nil
}

func (h *RegistrationHandler) HandleCancel(ctx context.Context, input *EventIDInput) (*MessageResponse, error) {
	if err := h.svc.Cancel(ctx, identity.FromContext(ctx), input.ID); err != nil {
		return nil, renderError(h.log, err)
	}
	return message("Registration cancelled"), nil
}

type CheckInRequest struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		Token string `json:"token" doc:"Check-in token from the attendee's QR code"`
	}
}

type CheckInResponse struct {
	Body registration.Attendee
}

func (h *RegistrationHandler) HandleCheckIn(ctx context.Context, input *CheckInRequest) (*CheckInResponse, error) {
	attendee, err := h.svc.CheckIn(ctx, identity.FromContext(ctx), input.Body.Token, input.ID)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	return &CheckInResponse{Body: *attendee}, nil
}
