package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gdg-garage/community-events/internal/cache"
	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"go.uber.org/zap"
)

// EventHandler serves the public listing, the event page and the caller's
// own events. Rendered views are cached until a revalidation drops them.
type EventHandler struct {
	svc   *events.Service
	views cache.Views
	log   *zap.Logger
}

func NewEventHandler(svc *events.Service, views cache.Views, log *zap.Logger) *EventHandler {
	if views == nil {
		views = cache.Nop{}
	}
	return &EventHandler{svc: svc, views: views, log: log}
}

type ListEventsInput struct {
	Tab string `query:"tab" enum:"upcoming,past" default:"upcoming" doc:"Which events to list"`
}

type ListEventsOutput struct {
	Body []events.Summary
}

func (h *EventHandler) HandleList(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	tab := events.ParseTab(input.Tab)
	out := &ListEventsOutput{}
	hit, gen := h.views.Get(ctx, revalidate.EventList, string(tab), &out.Body)
	if hit {
		return out, nil
	}

	list, err := h.svc.ListPublic(ctx, tab)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	out.Body = list
	h.views.Set(ctx, revalidate.EventList, string(tab), gen, list)
	return out, nil
}

// MyRegistration is the caller's own registration as shown on the event page.
type MyRegistration struct {
	Status       models.RegistrationStatus `json:"status"`
	CheckInToken string                    `json:"check_in_token,omitempty"`
	Attended     bool                      `json:"attended"`
	AttendedAt   *time.Time                `json:"attended_at,omitempty"`
}

type EventDetailOutput struct {
	Body struct {
		Event        events.Summary  `json:"event"`
		Full         bool            `json:"full"`
		Registrable  bool            `json:"registrable"`
		Registration *MyRegistration `json:"registration,omitempty"`
	}
}

func (h *EventHandler) HandleGet(ctx context.Context, input *EventIDInput) (*EventDetailOutput, error) {
	path := revalidate.EventDetail(input.ID)

	var summary events.Summary
	if hit, gen := h.views.Get(ctx, path, "event", &summary); !hit {
		s, err := h.svc.Get(ctx, input.ID)
		if err != nil {
			return nil, renderError(h.log, err)
		}
		summary = *s
		h.views.Set(ctx, path, "event", gen, summary)
	}

	out := &EventDetailOutput{}
	out.Body.Event = summary
	out.Body.Full = summary.Full()
	out.Body.Registrable = events.Registrable(summary.Status)

	reg, err := h.svc.MyRegistration(ctx, identity.FromContext(ctx), input.ID)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	if reg != nil {
		mine := &MyRegistration{Status: reg.Status, Attended: reg.Attended, AttendedAt: reg.AttendedAt}
		if reg.Status == models.RegistrationConfirmed {
			mine.CheckInToken = reg.QRToken
		}
		out.Body.Registration = mine
	}
	return out, nil
}

type MyEventsOutput struct {
	Body []events.MyEvent
}

func (h *EventHandler) HandleMyEvents(ctx context.Context, input *ListEventsInput) (*MyEventsOutput, error) {
	who := identity.FromContext(ctx)
	tab := events.ParseTab(input.Tab)
	variant := strconv.FormatUint(uint64(who.UserID), 10) + ":" + string(tab)

	out := &MyEventsOutput{}
	var gen int64
	if who.Authenticated {
		var hit bool
		if hit, gen = h.views.Get(ctx, revalidate.MyEvents, variant, &out.Body); hit {
			return out, nil
		}
	}

	list, err := h.svc.MyEvents(ctx, who, tab)
	if err != nil {
		return nil, renderError(h.log, err)
	}
	out.Body = list
	h.views.Set(ctx, revalidate.MyEvents, variant, gen, list)
	return out, nil
}
